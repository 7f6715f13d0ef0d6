package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/skyshow-tech/fleet_dashboard/internal/config"
	"github.com/skyshow-tech/fleet_dashboard/internal/origin"
)

// RunOriginProducer opens the ground-station GPS receiver, parses NMEA
// sentences, and publishes fixes as JSON on the origin topic. The dashboard
// persists valid fixes as the show origin.
func RunOriginProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDOrigin)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("origin producer connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open GPS serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.OriginSerialPort,
		BaudRate:              uint(cfg.OriginBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("origin GPS serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	// RMC carries everything the origin needs; other sentence types are
	// ignored.
	var current origin.Fix

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("origin GPS read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// NMEA sentences usually start with '$'
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy receiver or partial sentences; skip
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeRMC:
			m := sentence.(nmea.RMC)

			current.Time = m.Time.String()
			current.Date = m.Date.String()
			current.Latitude = m.Latitude
			current.Longitude = m.Longitude
			current.SpeedKnots = m.Speed
			current.CourseDeg = m.Course
			current.Validity = string(m.Validity)

			payload, err := json.Marshal(current)
			if err != nil {
				log.Printf("origin fix JSON marshal error: %v", err)
				continue
			}

			token := client.Publish(cfg.TopicOrigin, 0, true, payload)
			token.Wait()
			if token.Error() != nil {
				log.Printf("origin fix publish error: %v", token.Error())
				continue
			}

		default:
			// ignore other sentence types (GGA, GSA, etc.)
		}
	}
}
