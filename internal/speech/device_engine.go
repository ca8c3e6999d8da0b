package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"newspaper-reader/internal/domain"
)

// espeak-ng defaults: 175 words per minute, pitch 50 of 0-99, amplitude 100 of 0-200.
const (
	baseWordsPerMinute = 175
	basePitch          = 50
	baseAmplitude      = 100
)

// DeviceEngine speaks through a local espeak-compatible command.
type DeviceEngine struct {
	command string
	logger  domain.Logger
}

func NewDeviceEngine(command string, logger domain.Logger) *DeviceEngine {
	return &DeviceEngine{command: command, logger: logger}
}

// Voices lists the voices reported by `<command> --voices`.
func (e *DeviceEngine) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.command, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return parseVoices(out), nil
}

// Start launches the command with the text on stdin. The process outlives ctx; it ends on its own or
// through Playback.Stop.
func (e *DeviceEngine) Start(ctx context.Context, u Utterance) (Playback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(e.command, deviceArgs(u)...)
	cmd.Stdin = strings.NewReader(u.Text)

	pb, err := startProcess(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start %s: %w", domain.ErrSynthesisFailed, e.command, err)
	}
	e.logger.Debug("Device speech process started", "command", e.command, "pid", cmd.Process.Pid)
	return pb, nil
}

func deviceArgs(u Utterance) []string {
	args := []string{
		"-s", strconv.Itoa(int(math.Round(baseWordsPerMinute * u.Speed))),
		"-p", strconv.Itoa(int(clamp(math.Round(basePitch*u.Pitch), 0, 99))),
		"-a", strconv.Itoa(int(math.Round(baseAmplitude * u.Volume))),
	}
	if u.Voice != nil && u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}
	return append(args, "--stdin")
}

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{
			ID:       fields[1],
			Name:     fields[3],
			Language: fields[1],
		})
	}
	return voices
}
