package ffmpeg

import "regexp"

// Progress is one parsed stats snapshot from the FFmpeg diagnostic stream.
// Fields keep the encoder's own textual formatting.
type Progress struct {
	FPS           string
	Bitrate       string
	DroppedFrames string
}

// FFmpeg -stats progress lines look like:
//
//	frame=  120 fps= 30.0 q=23.0 size=    1024KiB time=00:00:04.00 bitrate=2097.2kbits/s drop=4 speed=1.01x
var (
	progressRe = regexp.MustCompile(`(?i)fps=\s*([\d.]+).*?bitrate=\s*(\S+)`)
	dropRe     = regexp.MustCompile(`(?i)drop=\s*(\d+)`)
)

// ParseProgressLine parses one line of FFmpeg stderr. It returns the parsed
// progress and true for stats lines, or false for anything else (banners,
// codec info, partial lines). Unparseable lines are not errors.
func ParseProgressLine(line string) (Progress, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}

	p := Progress{FPS: m[1], Bitrate: m[2]}
	if d := dropRe.FindStringSubmatch(line); d != nil {
		p.DroppedFrames = d[1]
	}
	return p, true
}

// ScanLinesCR is a bufio.SplitFunc that treats both \r and \n as line
// delimiters. FFmpeg rewrites its progress line in place using \r, so the
// standard newline splitter would buffer it forever. At end of stream any
// final unterminated fragment is flushed as a line.
func ScanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	for i := 0; i < len(data); i++ {
		if data[i] == '\r' || data[i] == '\n' {
			advance = i + 1
			for advance < len(data) && (data[advance] == '\r' || data[advance] == '\n') {
				advance++
			}
			return advance, data[0:i], nil
		}
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}
