package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"feastline/config"
	"feastline/di"
	"feastline/infras/malgo"
	"feastline/infras/oto"
	"feastline/internal/domains/voice/capture"
	"feastline/internal/domains/voice/playback"
	voiceService "feastline/internal/domains/voice/service"
	"feastline/shared/logger"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var accessToken string

var rootCmd = &cobra.Command{
	Use:   "feastline-kiosk",
	Short: "Takes a catering booking by voice on the local microphone and speaker",
	Long: `feastline-kiosk opens one voice session against the booking agent using the
machine's default microphone and speaker. The finished draft is shown on the
terminal and only committed once you type accept.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		logger.InitLogger()
		logger.SetLogLevel(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		audio, err := malgo.New()
		if err != nil {
			return fmt.Errorf("failed to open audio context: %w", err)
		}
		defer audio.Close()

		output, err := oto.New(cfg.Voice.PlaybackSampleRate)
		if err != nil {
			return fmt.Errorf("failed to open audio output: %w", err)
		}

		speaker := playback.NewSpeaker(output, cfg.Voice.PlaybackSampleRate)
		defer speaker.Close()

		microphone := capture.NewMicrophone(audio.Device(), cfg.Voice.CaptureSampleRate)
		defer microphone.Close()

		voice := di.InitializeKiosk()
		defer voice.Shutdown(context.WithoutCancel(ctx))

		session, err := voice.Open(ctx, voiceService.OpenRequest{
			AccessToken: accessToken,
			Capture:     microphone,
			Speaker:     speaker,
		})
		if err != nil {
			return fmt.Errorf("failed to open voice session: %w", err)
		}

		log.Info().Str("session_id", session.ID()).Msg("voice session opened, start speaking")

		c := &console{
			voice: voice,
			token: accessToken,
			id:    session.ID(),
			out:   cmd.OutOrStdout(),
		}

		updates, unsubscribe := session.Subscribe()
		defer unsubscribe()

		go c.watch(updates)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		go func() {
			select {
			case <-session.Done():
				cancel()
			case <-runCtx.Done():
			}
		}()

		c.run(runCtx, cmd.InOrStdin())

		if err := voice.Close(context.WithoutCancel(ctx), accessToken, session.ID()); err != nil {
			log.Warn().Err(err).Msg("voice session already ended")
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&accessToken, "token", "", "access token sent to the catalog and booking endpoints")
	_ = rootCmd.MarkFlagRequired("token")
}
