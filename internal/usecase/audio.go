package usecase

import (
	"context"

	"github.com/forPelevin/vsindex/internal/ports"
)

// CheckAudio reports whether path has an audio track that the audio source
// capability can open. A missing capability counts as no audio.
func (u Usecase) CheckAudio(ctx context.Context, path string) bool {
	src, err := lookup[ports.AudioSource](u, CapBAS, "")
	if err != nil {
		u.d.Log.WithError(err).Debug("audio source unavailable")
		return false
	}
	if err := src.OpenAudio(ctx, path); err != nil {
		u.d.Log.WithError(err).WithField("path", path).Debug("no audio")
		return false
	}
	return true
}
