package batch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type itemSummary struct {
	Path    string       `json:"path"`
	Applied bool         `json:"applied"`
	Reason  string       `json:"reason,omitempty"`
	Angle   float64      `json:"angle_degrees"`
	Format  string       `json:"format,omitempty"`
	Contour [][2]float64 `json:"contour,omitempty"`
	Fold    *foldSummary `json:"fold,omitempty"`
	Outputs []string     `json:"outputs,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type foldSummary struct {
	X          float64 `json:"x"`
	Confidence float64 `json:"confidence"`
}

type runSummary struct {
	Files     int           `json:"files"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Workers   int           `json:"workers"`
	Duration  string        `json:"duration"`
	Items     []itemSummary `json:"items"`
}

// FormatSummary renders a batch result as text or JSON.
func FormatSummary(res *Result, format string) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(res)
	case FormatText, "":
		return formatText(res), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatJSON(res *Result) (string, error) {
	summary := runSummary{
		Files:     len(res.Items),
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Workers:   res.WorkerCount,
		Duration:  res.Duration.String(),
	}
	for _, item := range res.Items {
		s := itemSummary{Path: item.Path, Outputs: item.OutputPaths}
		if item.Err != nil {
			s.Error = item.Err.Error()
		}
		if item.Result != nil {
			s.Applied = item.Result.Applied
			s.Reason = item.Result.Reason
			s.Angle = item.Result.Angle
			s.Format = string(item.Result.Format.Class)
			if item.Result.Contour != nil {
				for _, p := range item.Result.Contour.Points() {
					s.Contour = append(s.Contour, [2]float64{p.X, p.Y})
				}
			}
			if item.Result.Fold != nil {
				s.Fold = &foldSummary{X: item.Result.Fold.X, Confidence: item.Result.Fold.Confidence}
			}
		}
		summary.Items = append(summary.Items, s)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}
	return string(data), nil
}

func formatText(res *Result) string {
	var sb strings.Builder
	for _, item := range res.Items {
		switch {
		case item.Err != nil:
			fmt.Fprintf(&sb, "FAIL %s: %v\n", item.Path, item.Err)
		case item.Result != nil && !item.Result.Applied:
			fmt.Fprintf(&sb, "SKIP %s (%s)\n", item.Path, item.Result.Reason)
		default:
			fmt.Fprintf(&sb, "OK   %s angle=%.2f outputs=%s\n",
				item.Path, item.Result.Angle, strings.Join(item.OutputPaths, ", "))
		}
	}
	fmt.Fprintf(&sb, "%d file(s): %d succeeded, %d failed in %s with %d worker(s)\n",
		len(res.Items), res.Succeeded, res.Failed, res.Duration.Round(time.Millisecond), res.WorkerCount)
	return sb.String()
}
