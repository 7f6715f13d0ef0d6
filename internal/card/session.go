package card

import (
	"fmt"
	"strconv"

	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
)

// EditState is the card's editing state. A card starts in Viewing and cycles
// between the three states under user actions; there is no terminal state.
type EditState int

const (
	Viewing EditState = iota
	Editing
	ConfirmingPositionChange
)

func (s EditState) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case ConfirmingPositionChange:
		return "confirming_position_change"
	}
	return fmt.Sprintf("EditState(%d)", int(s))
}

// Buffer holds the unsaved form values as entered. Everything stays a string
// until save-time validation; x and y are only parsed when the user commits.
type Buffer struct {
	HardwareID  string `json:"hw_id"`
	PositionID  string `json:"pos_id"`
	X           string `json:"x"`
	Y           string `json:"y"`
	IP          string `json:"ip"`
	MavlinkPort string `json:"mavlink_port"`
	DebugPort   string `json:"debug_port"`
	GCSIP       string `json:"gcs_ip"`
}

func bufferFrom(d fleet.DroneConfig) Buffer {
	return Buffer{
		HardwareID:  d.HardwareID,
		PositionID:  d.PositionID,
		X:           strconv.FormatFloat(d.X, 'f', -1, 64),
		Y:           strconv.FormatFloat(d.Y, 'f', -1, 64),
		IP:          d.IP,
		MavlinkPort: d.MavlinkPort,
		DebugPort:   d.DebugPort,
		GCSIP:       d.GCSIP,
	}
}

// PendingChange is a staged position-id switch awaiting confirmation.
// Selecting another drone's position id adopts that drone's launch
// coordinates, so the operator sees old and new coordinates side by side
// before anything touches the buffer.
type PendingChange struct {
	PositionID string `json:"pos_id"`
	NewX       string `json:"new_x"`
	NewY       string `json:"new_y"`
	OldX       string `json:"old_x"`
	OldY       string `json:"old_y"`
}

// Session drives the edit workflow for one drone card. It is not safe for
// concurrent use; the websocket handler serializes access per connection.
type Session struct {
	state   EditState
	record  fleet.DroneConfig
	buf     Buffer
	pending *PendingChange
}

func NewSession(record fleet.DroneConfig) *Session {
	return &Session{state: Viewing, record: record}
}

func (s *Session) State() EditState { return s.state }

// Buffer returns the current unsaved form values. Only meaningful while an
// edit is in progress.
func (s *Session) Buffer() Buffer { return s.buf }

// Pending returns the staged position change, or nil outside confirmation.
func (s *Session) Pending() *PendingChange {
	if s.pending == nil {
		return nil
	}
	copied := *s.pending
	return &copied
}

// Record returns the drone configuration backing this card.
func (s *Session) Record() fleet.DroneConfig { return s.record }

// SetRecord replaces the backing record when the fleet configuration changed
// externally. While an edit is in progress the operator's buffer wins and
// the update is dropped; it will be picked up on the next Viewing render.
func (s *Session) SetRecord(record fleet.DroneConfig) {
	if s.state != Viewing {
		return
	}
	s.record = record
}

// BeginEdit starts editing from the current record.
func (s *Session) BeginEdit() error {
	if s.state != Viewing {
		return fmt.Errorf("card: edit already in progress (%s)", s.state)
	}
	s.buf = bufferFrom(s.record)
	s.state = Editing
	return nil
}

// SetField updates one plain form field in the buffer. Position id changes
// go through SelectPositionID or SetCustomPositionID instead so the
// coordinate-adoption rules apply.
func (s *Session) SetField(name, value string) error {
	if s.state != Editing {
		return fmt.Errorf("card: cannot edit field in state %s", s.state)
	}
	switch name {
	case "hw_id":
		s.buf.HardwareID = value
	case "ip":
		s.buf.IP = value
	case "mavlink_port":
		s.buf.MavlinkPort = value
	case "debug_port":
		s.buf.DebugPort = value
	case "gcs_ip":
		s.buf.GCSIP = value
	case "x":
		s.buf.X = value
	case "y":
		s.buf.Y = value
	default:
		return fmt.Errorf("card: unknown field %q", name)
	}
	return nil
}

// SelectPositionID handles a position-id pick from the selector. When the id
// belongs to another drone in the fleet the change is staged together with
// that drone's coordinates and must be confirmed; the buffer is untouched
// until ConfirmPositionChange. Picking the buffer's current id is a no-op.
func (s *Session) SelectPositionID(id string, drones []fleet.DroneConfig) error {
	if s.state != Editing {
		return fmt.Errorf("card: cannot change position id in state %s", s.state)
	}
	if id == s.buf.PositionID {
		return nil
	}

	for _, d := range drones {
		if d.PositionID != id || d.HardwareID == s.buf.HardwareID {
			continue
		}
		s.pending = &PendingChange{
			PositionID: id,
			NewX:       strconv.FormatFloat(d.X, 'f', -1, 64),
			NewY:       strconv.FormatFloat(d.Y, 'f', -1, 64),
			OldX:       s.buf.X,
			OldY:       s.buf.Y,
		}
		s.state = ConfirmingPositionChange
		return nil
	}

	// No drone currently holds this id, so there are no coordinates to
	// adopt and nothing to confirm.
	s.buf.PositionID = id
	return nil
}

// ConfirmPositionChange applies the staged position id and the adopted
// coordinates to the buffer in one step.
func (s *Session) ConfirmPositionChange() error {
	if s.state != ConfirmingPositionChange || s.pending == nil {
		return fmt.Errorf("card: no position change pending")
	}
	s.buf.PositionID = s.pending.PositionID
	s.buf.X = s.pending.NewX
	s.buf.Y = s.pending.NewY
	s.pending = nil
	s.state = Editing
	return nil
}

// CancelPositionChange discards the staged change. The buffer's position id
// and coordinates are exactly as they were before the selection.
func (s *Session) CancelPositionChange() error {
	if s.state != ConfirmingPositionChange {
		return fmt.Errorf("card: no position change pending")
	}
	s.pending = nil
	s.state = Editing
	return nil
}

// SetCustomPositionID enters a free-text position id. There is no existing
// record to adopt coordinates from, so the confirmation step is skipped and
// the coordinates reset to the origin slot.
func (s *Session) SetCustomPositionID(id string) error {
	if s.state != Editing {
		return fmt.Errorf("card: cannot change position id in state %s", s.state)
	}
	s.buf.PositionID = id
	s.buf.X = "0"
	s.buf.Y = "0"
	return nil
}

// Save validates the buffer. On any violation nothing is saved, the session
// stays in Editing and the field-keyed messages are returned. On success the
// parsed record replaces the backing record, the session returns to Viewing
// and the caller persists the record to the fleet store.
func (s *Session) Save() (fleet.DroneConfig, map[string]string, error) {
	if s.state != Editing {
		return fleet.DroneConfig{}, nil, fmt.Errorf("card: cannot save in state %s", s.state)
	}

	errs := validate(s.buf)
	if len(errs) > 0 {
		return fleet.DroneConfig{}, errs, nil
	}

	x, _ := strconv.ParseFloat(s.buf.X, 64)
	y, _ := strconv.ParseFloat(s.buf.Y, 64)
	record := fleet.DroneConfig{
		HardwareID:  s.buf.HardwareID,
		PositionID:  s.buf.PositionID,
		X:           x,
		Y:           y,
		IP:          s.buf.IP,
		MavlinkPort: s.buf.MavlinkPort,
		DebugPort:   s.buf.DebugPort,
		GCSIP:       s.buf.GCSIP,
	}

	s.record = record
	s.buf = Buffer{}
	s.state = Viewing
	return record, nil, nil
}

// Cancel discards the buffer and any staged change and returns to Viewing.
func (s *Session) Cancel() {
	s.buf = Buffer{}
	s.pending = nil
	s.state = Viewing
}

func validate(b Buffer) map[string]string {
	errs := make(map[string]string)

	required := []struct{ field, value string }{
		{"hw_id", b.HardwareID},
		{"ip", b.IP},
		{"mavlink_port", b.MavlinkPort},
		{"debug_port", b.DebugPort},
		{"gcs_ip", b.GCSIP},
		{"pos_id", b.PositionID},
	}
	for _, r := range required {
		if r.value == "" {
			errs[r.field] = "required"
		}
	}

	if _, err := strconv.ParseFloat(b.X, 64); err != nil {
		errs["x"] = "must be a number"
	}
	if _, err := strconv.ParseFloat(b.Y, 64); err != nil {
		errs["y"] = "must be a number"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
