package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

type ConnLogger struct {
	zerolog zerolog.Logger
}

func GetConnLogger(ip string, connID string) ConnLogger {
	return ConnLogger{log.With().Str("ip", ip).Str("conn-id", connID).Logger()}
}

func (l ConnLogger) Connected() {
	l.zerolog.Info().Msg("Connected")
}

func (l ConnLogger) Disconnected() {
	l.zerolog.Info().Msg("Disconnected")
}

func (l ConnLogger) CreatedRoom(roomID string) {
	l.zerolog.Info().Str("room-id", roomID).Msg("Created room")
}

func (l ConnLogger) JoinedRoom(roomID string) {
	l.zerolog.Info().Str("room-id", roomID).Msg("Joined room")
}

func (l ConnLogger) RejoinedRoom(roomID string) {
	l.zerolog.Info().Str("room-id", roomID).Msg("Rejoined room")
}

func (l ConnLogger) LeftRoom(roomID string) {
	l.zerolog.Info().Str("room-id", roomID).Msg("Left room")
}

func (l ConnLogger) RoomError(err error) {
	l.zerolog.Info().Err(err).Msg("Room error")
}

func LogGameStarted(roomID string) {
	log.Info().Str("room-id", roomID).Msg("Game started")
}

func LogRemovedIdleRoom(roomID string) {
	log.Info().Str("room-id", roomID).Msg("Removed idle room")
}

func LogStartedServer(port string) {
	log.Info().Msgf("Starting server on port %v", port)
}

func LogStoppingServer() {
	log.Info().Msg("Shutting down")
}

func LogErrorWhileUpgradingHTTP(err error) {
	log.Error().Err(err).Msg("Error while upgrading HTTP")
}
