package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/skyshow-tech/fleet_dashboard/internal/config"
	"github.com/skyshow-tech/fleet_dashboard/internal/origin"
)

// RunConsole subscribes to the fleet topics and prints each message as one
// line, for watching a show field from a terminal without the browser UI.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to heartbeats
	hbToken := client.Subscribe(cfg.TopicHeartbeat, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var hb heartbeatMsg
		if err := json.Unmarshal(msg.Payload(), &hb); err != nil {
			log.Printf("console: heartbeat unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[HB  ] hw=%-4s pos=%-4s auto=%-4s ip=%-15s ts=%d\n",
			hb.HardwareID, hb.PositionID, hb.DetectedPositionID, hb.IP, hb.TimestampMillis,
		)
	})
	hbToken.Wait()
	if hbToken.Error() != nil {
		return hbToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicHeartbeat)

	// Subscribe to origin fixes
	if cfg.TopicOrigin != "" {
		origToken := client.Subscribe(cfg.TopicOrigin, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var f origin.Fix
			if err := json.Unmarshal(msg.Payload(), &f); err != nil {
				log.Printf("console: origin fix unmarshal error: %v", err)
				return
			}

			fmt.Printf(
				"[ORIG] time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s\n",
				f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity,
			)
		})
		origToken.Wait()
		if origToken.Error() != nil {
			return origToken.Error()
		}
		log.Printf("console: subscribed to %s", cfg.TopicOrigin)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
