package handlers

import "time"

const (
	statusSuccess = "success"

	// Upper bound on one multipart upload
	maxUploadBytes = 200 << 20

	// Audio transcription plus one LLM call
	pipelineTimeout = 10 * time.Minute

	defaultSongLimit = 50
	maxSongLimit     = 500
)
