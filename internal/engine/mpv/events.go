package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"time"

	"encore/internal/engine"
	"encore/internal/logging"
)

type mpvEvent struct {
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

func (e *Engine) observeProperties() error {
	properties := []struct {
		id   int
		name string
	}{
		{1, "time-pos"},
		{2, "duration"},
		{3, "pause"},
		{4, "eof-reached"},
	}
	for _, prop := range properties {
		if _, err := sendCommand(e.socketPath, "observe_property", prop.id, prop.name); err != nil {
			return err
		}
	}
	return nil
}

// readEvents owns the persistent observer connection. It tracks the last
// known position/duration so every emitted event carries them.
func (e *Engine) readEvents(socketPath string, exited chan struct{}) {
	conn, err := net.DialTimeout("unix", socketPath, ipcDialTimeout)
	if err != nil {
		e.logger.Warn("event stream connect failed", logging.Error(err))
		e.emit(engine.ErrorEvent(&engine.Error{
			Category: engine.CategoryOther,
			Code:     "ipc-connect",
			Message:  err.Error(),
		}, 0, 0))
		return
	}
	defer conn.Close()

	go func() {
		select {
		case <-e.stopRead:
		case <-exited:
		}
		conn.Close()
	}()

	var position, duration time.Duration
	var paused bool
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev mpvEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}

		switch ev.Event {
		case "property-change":
			switch ev.Name {
			case "time-pos":
				if secs, ok := decodeFloat(ev.Data); ok {
					position = time.Duration(secs * float64(time.Second))
				}
			case "duration":
				if secs, ok := decodeFloat(ev.Data); ok {
					duration = time.Duration(secs * float64(time.Second))
				}
			case "pause":
				if value, ok := decodeBool(ev.Data); ok && value != paused {
					paused = value
					state := engine.StatePlaying
					if paused {
						state = engine.StatePaused
					}
					e.emit(engine.StateEvent(state, position, duration))
				}
			case "eof-reached":
				if value, ok := decodeBool(ev.Data); ok && value {
					e.emit(engine.StateEvent(engine.StateEnded, position, duration))
				}
			}
		case "end-file":
			e.handleEndFile(ev, position, duration)
		case "playback-restart":
			if !paused {
				e.emit(engine.StateEvent(engine.StatePlaying, position, duration))
			}
		}

		select {
		case <-e.stopRead:
			return
		default:
		}
	}
}

func (e *Engine) handleEndFile(ev mpvEvent, position, duration time.Duration) {
	switch ev.Reason {
	case "eof":
		e.emit(engine.StateEvent(engine.StateEnded, position, duration))
	case "error":
		e.emit(engine.ErrorEvent(categorize(ev.FileError), position, duration))
	case "quit", "stop":
		e.emit(engine.StateEvent(engine.StateIdle, position, duration))
	}
}

func (e *Engine) emit(event engine.Event) {
	select {
	case e.events <- event:
	case <-e.stopRead:
	}
}

// categorize maps mpv's file_error strings onto the controller's taxonomy.
// mpv reports loader failures with free-form text; substring matching is the
// only contract available.
func categorize(fileError string) *engine.Error {
	lower := strings.ToLower(fileError)
	category := engine.CategoryOther
	switch {
	case containsAny(lower,
		"loading failed",
		"connection",
		"network",
		"timed out",
		"timeout",
		"unreachable",
		"refused",
		"reset by peer",
		"name resolution",
		"input/output",
	):
		category = engine.CategoryNetwork
	case containsAny(lower,
		"demux",
		"parse",
		"parsing",
		"corrupt",
		"invalid data",
		"unrecognized",
		"failed to recognize",
		"subtitle",
	):
		category = engine.CategoryFormat
	}
	return &engine.Error{
		Category: category,
		Code:     "end-file",
		Message:  fileError,
	}
}

func containsAny(value string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}

func decodeFloat(data json.RawMessage) (float64, bool) {
	if len(data) == 0 {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return 0, false
	}
	return value, true
}

func decodeBool(data json.RawMessage) (bool, bool) {
	if len(data) == 0 {
		return false, false
	}
	var value bool
	if err := json.Unmarshal(data, &value); err != nil {
		return false, false
	}
	return value, true
}
