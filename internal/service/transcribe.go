package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/storage"
	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
	"clipgen/pkg/srt"
)

// maxConsecutiveRepeats bounds how many near-identical entries in a row are
// kept before the rest are treated as ASR hallucination and dropped.
const maxConsecutiveRepeats = 3

// transcribeVideo runs chunked transcription over the whole input. Each window
// is extracted to a mono 16kHz wav, transcribed, and its local timestamps
// re-based by the window offset. A failed extraction aborts the task; a failed
// transcription of one window is logged and skipped so a transient ASR error
// does not kill the run.
func (s *Service) transcribeVideo(ctx context.Context, stepParam *types.ClipTaskStepParam) error {
	duration, err := s.probeDuration(stepParam.InputFilePath)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeMediaUnreadable, "probe input duration", err)
	}
	stepParam.Duration = duration

	windowSize := stepParam.WindowSeconds
	var transcript types.Transcript
	failedWindows := 0
	totalWindows := 0

	for start := 0.0; start < duration; start += windowSize {
		totalWindows++
		winDur := windowSize
		if start+winDur > duration {
			winDur = duration - start
		}

		audioPath := filepath.Join(stepParam.TaskBasePath, fmt.Sprintf("window_%s.wav", uuid.NewString()))
		if err = s.extractAudioSlice(stepParam.InputFilePath, start, winDur, audioPath); err != nil {
			_ = os.Remove(audioPath)
			return apperrors.Wrap(apperrors.CodeAudioExtract,
				fmt.Sprintf("extract audio window at %.1fs", start), err)
		}

		entries, err := s.Transcriber.Transcribe(ctx, audioPath)
		_ = os.Remove(audioPath)
		if err != nil {
			failedWindows++
			log.GetLogger().Warn("transcription window failed, skipping",
				zap.String("taskId", stepParam.TaskId),
				zap.Float64("windowStart", start),
				zap.Error(err))
			continue
		}

		for _, entry := range entries {
			transcript = append(transcript, types.TranscriptEntry{
				Start: entry.Start + start,
				End:   entry.End + start,
				Text:  entry.Text,
			})
		}
	}

	if totalWindows > 0 && failedWindows == totalWindows {
		return apperrors.New(apperrors.CodeTranscribeFailed, "all transcription windows failed")
	}

	stepParam.Transcript = filterRepetitions(transcript)
	log.GetLogger().Info("transcription done",
		zap.String("taskId", stepParam.TaskId),
		zap.Int("windows", totalWindows),
		zap.Int("failedWindows", failedWindows),
		zap.Int("entries", len(stepParam.Transcript)))

	s.persistTranscript(ctx, stepParam)
	return nil
}

// filterRepetitions collapses long runs of near-identical consecutive entries,
// a common failure mode when the ASR model loops on silence or music.
func filterRepetitions(transcript types.Transcript) types.Transcript {
	if len(transcript) == 0 {
		return transcript
	}

	out := make(types.Transcript, 0, len(transcript))
	repeats := 0
	for i, entry := range transcript {
		if i > 0 && nearIdentical(entry.Text, transcript[i-1].Text) {
			repeats++
		} else {
			repeats = 0
		}
		if repeats >= maxConsecutiveRepeats {
			continue
		}
		out = append(out, entry)
	}
	if dropped := len(transcript) - len(out); dropped > 0 {
		log.GetLogger().Info("dropped repeated transcript entries", zap.Int("dropped", dropped))
	}
	return out
}

func nearIdentical(a, b string) bool {
	if a == b {
		return true
	}
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return true
	}
	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return float64(distance)/float64(longer) <= 0.2
}

// persistTranscript writes the SRT rendition locally and mirrors it to object
// storage. Failures here degrade the task, they do not fail it.
func (s *Service) persistTranscript(ctx context.Context, stepParam *types.ClipTaskStepParam) {
	srtPath := filepath.Join(stepParam.TaskBasePath, "output", "transcript.srt")
	content := srt.Format(stepParam.Transcript)
	if err := os.WriteFile(srtPath, []byte(content), 0o644); err != nil {
		log.GetLogger().Warn("failed to write local srt file",
			zap.String("taskId", stepParam.TaskId), zap.Error(err))
		return
	}
	stepParam.SrtLocalPath = srtPath
	stepParam.TaskPtr.SrtPath = srtPath
	_ = storage.SaveTask(stepParam.TaskPtr)

	bucket := config.Conf.Supabase.TranscriptBucket
	key := fmt.Sprintf("%s/%s.srt", stepParam.ProjectId, stepParam.TaskId)
	token, err := s.Store.CreateSignedUploadURL(ctx, bucket, key)
	if err != nil {
		log.GetLogger().Warn("transcript upload skipped, signed url failed",
			zap.String("taskId", stepParam.TaskId), zap.Error(err))
		return
	}
	if err = s.Store.UploadToSignedURL(ctx, bucket, key, token, []byte(content), "text/plain"); err != nil {
		log.GetLogger().Warn("transcript upload failed",
			zap.String("taskId", stepParam.TaskId), zap.Error(err))
		return
	}
	stepParam.SrtObjectKey = key

	if err = s.Store.UpdateRow(ctx, config.Conf.Supabase.ProjectTable, stepParam.ProjectId,
		map[string]any{"transcript_path": key}); err != nil {
		log.GetLogger().Warn("failed to record transcript path on project",
			zap.String("projectId", stepParam.ProjectId), zap.Error(err))
	}
}
