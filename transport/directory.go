package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/submitgo/submit/message"
)

// Directory delivers a message by writing it to <Dir>/<message-id>.eml,
// atomically (temp file + rename), alongside a <message-id>.json sidecar
// describing the envelope. Useful for offline inspection and tests that
// want real files on disk without a network.
type Directory struct {
	Dir string
}

type sidecar struct {
	ReversePath string   `json:"reverse_path"`
	ForwardPath []string `json:"forward_path"`
	MessageID   string   `json:"message_id"`
}

// Send implements Transport.
func (d *Directory) Send(env *message.Envelope, raw []byte) (*Report, error) {
	id, err := messageID(raw)
	if err != nil {
		return Failure(env, err), err
	}

	base := sanitizeFilename(id)
	emlPath := filepath.Join(d.Dir, base+".eml")
	jsonPath := filepath.Join(d.Dir, base+".json")

	if err := writeAtomic(emlPath, raw); err != nil {
		return Failure(env, err), err
	}

	sc := sidecar{MessageID: id}
	if env.ReversePath != nil {
		sc.ReversePath = env.ReversePath.String()
	}
	for _, a := range env.ForwardPath {
		sc.ForwardPath = append(sc.ForwardPath, a.String())
	}
	body, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return Failure(env, err), err
	}
	if err := writeAtomic(jsonPath, body); err != nil {
		return Failure(env, err), err
	}

	return Success(env), nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming into place %s: %w", path, err)
	}
	return nil
}

func messageID(raw []byte) (string, error) {
	msg, err := message.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parsing message for message id: %w", err)
	}
	id, err := msg.GetHeader().GetMessageID()
	if err != nil {
		return "", fmt.Errorf("message has no Message-ID: %w", err)
	}
	return strings.Trim(id, "<>"), nil
}

func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_', r == '@':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
