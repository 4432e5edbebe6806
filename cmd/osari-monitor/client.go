package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/metrics"
	"github.com/IngeLeu/OSARI/internal/protocol"
)

// Client is a monitor connection to one session.
type Client struct {
	conn      *websocket.Conn
	sessionID string
}

// Dial connects to the monitor endpoint.
func Dial(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Attach sends hello for sessionID and waits for hello_ack.
func (c *Client) Attach(sessionID string) error {
	msg := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		Role: protocol.RoleMonitor,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}
	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}
	if base.Type != protocol.TypeHelloAck {
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}

	c.sessionID = sessionID
	return nil
}

// Follow prints records until the session is done or the connection drops.
// It returns the final status.
func (c *Client) Follow(w io.Writer) (string, error) {
	fmt.Fprintln(w, domain.RecordHeader+"\toutcome")
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return "", nil
			}
			return "", fmt.Errorf("read: %w", err)
		}
		status, done, err := render(w, data)
		if err != nil {
			fmt.Fprintf(w, "# unreadable message: %v\n", err)
			continue
		}
		if done {
			return status, nil
		}
	}
}

// render prints one server message. done is set on session_done.
func render(w io.Writer, data []byte) (status string, done bool, err error) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return "", false, err
	}

	switch base.Type {
	case protocol.TypeTrialRecord:
		var msg protocol.TrialRecordMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return "", false, err
		}
		var record domain.TrialRecord
		if err := json.Unmarshal(msg.Record, &record); err != nil {
			return "", false, err
		}
		fmt.Fprintf(w, "%s\t%s\n", record.TSV(), msg.Outcome)

	case protocol.TypeNotice:
		var msg protocol.NoticeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return "", false, err
		}
		fmt.Fprintf(w, "# %s\n", strings.ReplaceAll(msg.Text, "\n", " "))

	case protocol.TypeSessionDone:
		var msg protocol.SessionDoneMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return "", false, err
		}
		fmt.Fprintf(w, "# session %s: %s\n", msg.SessionID, msg.Status)
		if msg.Error != "" {
			fmt.Fprintf(w, "# error: %s\n", msg.Error)
		}
		if len(msg.Summary) > 0 {
			var s metrics.Summary
			if err := json.Unmarshal(msg.Summary, &s); err == nil {
				printSummary(w, s)
			}
		}
		return msg.Status, true, nil

	case protocol.TypeError:
		var msg protocol.ErrorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return "", false, err
		}
		fmt.Fprintf(w, "# server error: %s - %s\n", msg.Code, msg.Message)
	}
	return "", false, nil
}

func printSummary(w io.Writer, s metrics.Summary) {
	fmt.Fprintf(w, "# main trials: %d (go %d, stop %d)\n", s.Trials, s.GoTrials, s.StopTrials)
	fmt.Fprintf(w, "# correct go: %d, correct stop: %d\n", s.CorrectGo, s.CorrectStop)
	fmt.Fprintf(w, "# mean go RT: %.0f ms (sd %.0f), mean offset from target: %.0f ms\n",
		s.MeanGoRT*1000, s.GoRTSD*1000, s.MeanTargetOffset*1000)
	fmt.Fprintf(w, "# stop success: %.0f%%, mean SSD: %.0f ms, SSRT: %.0f ms\n",
		s.StopSuccessRate*100, s.MeanSSD*1000, s.SSRT*1000)
}
