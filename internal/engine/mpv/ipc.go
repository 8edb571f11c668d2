package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// ipcCommand is the JSON frame sent to mpv's IPC socket.
type ipcCommand struct {
	Command []any `json:"command"`
}

// ipcResponse is the JSON frame mpv returns for a command.
type ipcResponse struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

const ipcDialTimeout = 2 * time.Second

// sendCommand issues one command over a fresh connection and returns the raw
// response data. mpv routes responses to the issuing connection, so using a
// dedicated connection keeps them apart from the observer event stream.
func sendCommand(socketPath string, command ...any) (json.RawMessage, error) {
	conn, err := net.DialTimeout("unix", socketPath, ipcDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial mpv socket: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal mpv command: %w", err)
	}
	payload = append(payload, '\n')

	if err := conn.SetDeadline(time.Now().Add(ipcDialTimeout)); err != nil {
		return nil, fmt.Errorf("set mpv deadline: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write mpv command: %w", err)
	}

	// mpv may emit unsolicited events on any connection; skip until the
	// command response (the frame carrying an "error" field) arrives.
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.Error == "" {
			continue // event frame, not a response
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv command failed: %s", resp.Error)
		}
		return resp.Data, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mpv response: %w", err)
	}
	return nil, fmt.Errorf("mpv closed connection before responding")
}

func getPropertyFloat(socketPath, name string) (float64, error) {
	data, err := sendCommand(socketPath, "get_property", name)
	if err != nil {
		return 0, err
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return 0, fmt.Errorf("decode property %s: %w", name, err)
	}
	return value, nil
}

func getPropertyBool(socketPath, name string) (bool, error) {
	data, err := sendCommand(socketPath, "get_property", name)
	if err != nil {
		return false, err
	}
	var value bool
	if err := json.Unmarshal(data, &value); err != nil {
		return false, fmt.Errorf("decode property %s: %w", name, err)
	}
	return value, nil
}

func getPropertyString(socketPath, name string) (string, error) {
	data, err := sendCommand(socketPath, "get_property", name)
	if err != nil {
		return "", err
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return "", fmt.Errorf("decode property %s: %w", name, err)
	}
	return value, nil
}
