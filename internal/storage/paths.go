package storage

// Resolved binary paths for external media tools. Populated once at startup by
// the deps resolver; defaults assume the binaries are on PATH.
var (
	FfmpegPath  = "ffmpeg"
	FfprobePath = "ffprobe"
)
