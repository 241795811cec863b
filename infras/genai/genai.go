package genai

import (
	"context"
	"time"

	"feastline/config"

	"github.com/rs/zerolog/log"
	goGenai "google.golang.org/genai"
)

const connectTimeout = 10 * time.Second

func New(config *config.Config) *goGenai.Client {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := goGenai.NewClient(ctx, &goGenai.ClientConfig{
		APIKey:  config.External.Gemini.APIKey,
		Backend: goGenai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	log.Info().Str("model", config.External.Gemini.Model).Msg("Gemini client ready")

	return client
}
