package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/clipforge/clipforge-agent/internal/timeline"
)

const DefaultFrameRate = 30.0

// GenerateEDL renders the resolved segments as a CMX3600 event list. Events
// keep their timeline record positions, so gaps and overlapping tracks
// survive the round trip into another editor.
func GenerateEDL(segments []Segment, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	event := 0
	for _, seg := range segments {
		if !seg.Resolved {
			continue
		}
		event++
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", event, "AX", channel(seg.TrackKind),
				secondsToTimecode(seg.SourceIn, fps), secondsToTimecode(seg.SourceOut, fps),
				secondsToTimecode(seg.RecordIn, fps), secondsToTimecode(seg.RecordOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", seg.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", seg.SourcePath),
		)
		if seg.TrackKind == timeline.TrackAudio && seg.Volume != 1 {
			lines = append(lines, fmt.Sprintf("* AUDIO LEVEL:  %.2f", seg.Volume))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func channel(kind timeline.TrackKind) string {
	if kind == timeline.TrackAudio {
		return "A"
	}
	return "V"
}

func secondsToTimecode(sec float64, fps int) string {
	totalFrames := int(math.Round(sec * float64(fps)))
	if totalFrames < 0 {
		totalFrames = 0
	}
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
