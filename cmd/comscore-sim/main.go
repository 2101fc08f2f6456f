// comscore-sim replays a scripted playback scenario through the tracking
// plugin, reporting either to a running collector or to an in-process
// recorder for dry runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/config"
	"github.com/mkettner/comscore-go/internal/connector"
	"github.com/mkettner/comscore-go/internal/logger"
	"github.com/mkettner/comscore-go/internal/tracker"
)

// Step is one scripted player event. Position and duration values are in
// milliseconds, matching what a real player integration would deliver.
type Step struct {
	Action     string   `json:"action"`
	DelayMs    int64    `json:"delay_ms,omitempty"`
	PositionMs float64  `json:"position_ms,omitempty"`
	DurationMs float64  `json:"duration_ms,omitempty"`
	Buffering  bool     `json:"buffering,omitempty"`
	Rate       float64  `json:"rate,omitempty"`
	AdID       string   `json:"ad_id,omitempty"`
	AdType     string   `json:"ad_type,omitempty"`
	AdLengthMs *int64   `json:"ad_length_ms,omitempty"`
	BreakID    string   `json:"break_id,omitempty"`
	Completed  *bool    `json:"completed,omitempty"`
	ErrorCode  string   `json:"error_code,omitempty"`
	Message    string   `json:"message,omitempty"`
	StatusCode *int     `json:"status_code,omitempty"`
	IsFatal    *bool    `json:"is_fatal,omitempty"`
	BitrateBps int64    `json:"bitrate_bps,omitempty"`
	Volume     *float64 `json:"volume,omitempty"`
}

// Scenario is a scripted playback session
type Scenario struct {
	Metadata *comscore.ContentMetadata `json:"metadata"`
	Steps    []Step                    `json:"steps"`
}

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario JSON file (required)")
	collectorURL := flag.String("collector", "", "collector base URL (overrides config)")
	instanceID := flag.Int("instance", 0, "plugin instance id (0 = derived from time)")
	dryRun := flag.Bool("dry-run", false, "record events in memory and print a summary instead of posting")
	realtime := flag.Bool("realtime", false, "honor step delays instead of replaying immediately")
	flag.Parse()

	if *scenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", *scenarioPath).Msg("Failed to load scenario")
	}

	id := *instanceID
	if id == 0 {
		id = int(time.Now().Unix() % 1_000_000)
	}

	trackerCfg := comscore.Configuration{
		PublisherID:     cfg.Tracker.PublisherID,
		ApplicationName: cfg.Tracker.ApplicationName,
		UserConsent:     comscore.UserConsent(cfg.Tracker.UserConsent),
		UpdateMode:      comscore.UpdateMode(cfg.Tracker.UpdateMode),
		Debug:           cfg.Tracker.Debug,
	}
	if trackerCfg.PublisherID == "" {
		trackerCfg.PublisherID = "pub-sim"
	}
	if trackerCfg.ApplicationName == "" {
		trackerCfg.ApplicationName = "comscore-sim"
	}

	var conn comscore.Connector
	var recorder *comscore.Recorder
	if *dryRun {
		recorder = comscore.NewRecorder(id)
		conn = recorder
	} else {
		url := *collectorURL
		if url == "" {
			url = cfg.Tracker.CollectorURL
		}
		conn = connector.NewHTTPConnector(id, url, &trackerCfg)
	}

	plugin, err := tracker.NewPlugin(conn, scenario.Metadata, trackerCfg, tracker.DefaultOptions())
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to construct plugin")
	}

	runID := uuid.New().String()
	plugin.SetPersistentLabel("sim_run_id", runID)
	logger.Log.Info().
		Str("run_id", runID).
		Int("instance_id", id).
		Int("steps", len(scenario.Steps)).
		Msg("Replaying scenario")

	for i, step := range scenario.Steps {
		if *realtime && step.DelayMs > 0 {
			time.Sleep(time.Duration(step.DelayMs) * time.Millisecond)
		}
		if err := apply(plugin, step); err != nil {
			logger.Log.Fatal().Err(err).Int("step", i).Str("action", step.Action).Msg("Scenario step failed")
		}
	}

	plugin.Destroy()

	if recorder != nil {
		printSummary(recorder)
	}
	logger.Log.Info().Str("run_id", runID).Msg("Scenario complete")
}

func loadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := json.Unmarshal(raw, &scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario file: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario has no steps")
	}
	return &scenario, nil
}

// apply dispatches one step onto the plugin surface
func apply(p *tracker.Plugin, step Step) error {
	switch step.Action {
	case "source_change":
		p.OnSourceChange()
	case "play":
		p.OnPlay()
	case "pause":
		p.OnPause()
	case "stop":
		p.OnStop()
	case "end":
		p.OnEnd()
	case "seek":
		p.OnSeek(tracker.SeekParams{PositionMs: step.PositionMs, DurationMs: step.DurationMs})
	case "buffering":
		p.OnBuffering(tracker.BufferingParams{Buffering: step.Buffering})
	case "rate_change":
		p.OnPlaybackRateChange(tracker.RateChangeParams{Rate: step.Rate})
	case "duration_change":
		p.OnDurationChange(tracker.DurationChangeParams{DurationMs: step.DurationMs})
	case "ad_break_begin":
		pos := step.PositionMs
		p.OnAdBreakBegin(tracker.AdBreakBeginParams{AdBreakID: step.BreakID, AdBreakPositionMs: &pos})
	case "ad_break_end":
		p.OnAdBreakEnd(tracker.AdBreakEndParams{})
	case "ad_begin":
		pos := step.PositionMs
		p.OnAdBegin(tracker.AdBeginParams{
			AdID:         step.AdID,
			AdType:       step.AdType,
			AdDurationMs: step.AdLengthMs,
			AdPositionMs: &pos,
		})
	case "ad_end":
		p.OnAdEnd(tracker.AdEndParams{AdID: step.AdID, Completed: step.Completed})
	case "content_resume":
		p.OnContentResume()
	case "error":
		p.OnError(tracker.ErrorParams{
			ErrorCode:    step.ErrorCode,
			ErrorMessage: step.Message,
			IsFatal:      step.IsFatal,
		})
	case "network_error":
		p.OnNetworkError(tracker.ErrorParams{
			ErrorCode:  step.ErrorCode,
			StatusCode: step.StatusCode,
			IsFatal:    step.IsFatal,
		})
	case "bitrate_change":
		p.OnBitrateChange(step.BitrateBps)
	case "volume_change":
		if step.Volume != nil {
			p.OnVolumeChange(tracker.VolumeParams{Volume: *step.Volume})
		}
	case "background":
		p.OnApplicationBackground()
	case "foreground":
		p.OnApplicationForeground()
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

// printSummary dumps per-method call counts from a dry run
func printSummary(rec *comscore.Recorder) {
	methods := rec.Methods()
	sort.Strings(methods)

	fmt.Printf("connector calls (%d total):\n", len(rec.Calls()))
	for _, method := range methods {
		fmt.Printf("  %-28s %d\n", method, rec.Count(method))
	}
}
