// Command osari-monitor attaches to a session and prints its trial records
// as they are reported, then the session summary.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/monitor", "monitor WebSocket address")
	sessionID := flag.String("session", "", "session to follow")
	simulate := flag.Bool("simulate", false, "ask the API to run the session with a simulated participant")
	api := flag.String("api", "http://localhost:8080", "experimenter API address, used with -simulate")
	seed := flag.Uint64("seed", 0, "simulated participant seed, used with -simulate")
	flag.Parse()

	log.SetFlags(log.Ltime)

	if *sessionID == "" {
		log.Fatal("-session is required")
	}

	client, err := Dial(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := client.Attach(*sessionID); err != nil {
		log.Fatalf("Attach failed: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Following session %s\n", *sessionID)

	if *simulate {
		if err := startSimulation(*api, *sessionID, *seed); err != nil {
			log.Fatalf("Simulate failed: %v", err)
		}
	}

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	result := make(chan error, 1)
	go func() {
		status, err := client.Follow(os.Stdout)
		if err == nil && status == "" {
			err = fmt.Errorf("connection closed before the session ended")
		}
		result <- err
	}()

	select {
	case <-interrupt:
		fmt.Fprintln(os.Stderr, "\nInterrupted")
	case err := <-result:
		if err != nil {
			log.Fatalf("Monitor stopped: %v", err)
		}
	}
}

func startSimulation(api, sessionID string, seed uint64) error {
	body, err := json.Marshal(map[string]uint64{"seed": seed})
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(api, "/") + "/v1/sessions/" + sessionID + "/simulate"
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var e map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("status %d: %v", resp.StatusCode, e["error"])
	}
	return nil
}
