package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pathakanu/vitalTrack/internal/analysis"
	"github.com/pathakanu/vitalTrack/internal/store"
)

func formatTriggers(symptomType string, results []analysis.TriggerResult, occurrences int) string {
	name := displayName(symptomType)
	if len(results) == 0 {
		return fmt.Sprintf("No dietary correlations found for %s yet. Keep logging meals and symptoms!", name)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Potential triggers for %s (%d occurrences, meals 1-12h before):\n", name, occurrences))
	for i, r := range results {
		if i == maxTriggersInReply {
			sb.WriteString(fmt.Sprintf("...and %d more.", len(results)-maxTriggersInReply))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %d%% (%d of %d)\n", i+1, r.Trigger, r.Percentage, r.OccurrenceCount, occurrences))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatTrend(trend analysis.TrendSeries, windowDays int) string {
	var sb strings.Builder
	for _, ds := range trend.Datasets {
		total := 0
		for _, n := range ds.Data {
			total += n
		}
		if total == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s: %d\n", ds.Label, total))
	}
	if sb.Len() == 0 {
		return fmt.Sprintf("No symptoms logged in the last %d days.", windowDays)
	}
	return fmt.Sprintf("Symptoms over the last %d days:\n%s", windowDays, strings.TrimRight(sb.String(), "\n"))
}

// BuildDigest summarises each symptom type seen in the trend window with its
// count and most frequent trigger. It returns "" when nothing was logged.
func BuildDigest(snap store.Snapshot, windowDays int, reference time.Time) string {
	trend := analysis.ComputeTrend(snap.Symptoms, windowDays, reference)

	var lines []string
	for _, ds := range trend.Datasets {
		total := 0
		for _, n := range ds.Data {
			total += n
		}
		if total == 0 {
			continue
		}

		line := fmt.Sprintf("%s: %d in the last %d days", ds.Label, total, windowDays)
		if triggers := analysis.ComputeCorrelations(ds.SymptomType, snap.Meals, snap.Symptoms); len(triggers) > 0 {
			top := triggers[0]
			line += fmt.Sprintf("; most frequent prior food %s (%d%% of occurrences)", top.Trigger, top.Percentage)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}
	return "VitalTrack daily digest\n" + strings.Join(lines, "\n")
}

func (b *Bot) sendDailyDigest(ctx context.Context) error {
	snap, err := b.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	start := time.Now()
	digest := BuildDigest(snap, b.cfg.TrendWindowDays, b.reference())
	b.metrics.ObserveAnalysis("digest", start)
	if digest == "" {
		return nil
	}

	message, err := b.openAI.NarrateDigest(ctx, digest)
	if err != nil {
		b.logger.Printf("openai narrate error: %v", err)
		message = digest
	}
	return b.messenger.SendWhatsAppMessage(b.cfg.OwnerWhatsAppNumber, message)
}

func (b *Bot) runBackup(ctx context.Context) (string, error) {
	path, err := b.store.ExportFile(ctx, b.cfg.BackupDir, b.reference())
	if err != nil {
		return "", err
	}
	b.logger.Printf("backup: wrote %s", path)
	return path, nil
}
