package daemon

import (
	"context"
	"log/slog"

	"tapedeck/internal/logging"
	"tapedeck/internal/recording"
)

// CardDriver controls a capture device. Real tuner control lives outside
// this process; the default driver only logs the transitions so the
// scheduling machinery runs unchanged without hardware.
type CardDriver interface {
	StartCapture(ctx context.Context, entry recording.Entry) error
	StopCapture(ctx context.Context, entry recording.Entry) error
}

type loggingDriver struct {
	logger *slog.Logger
}

// NewLoggingDriver returns a CardDriver that records transitions in the log
// and does nothing else.
func NewLoggingDriver(logger *slog.Logger) CardDriver {
	return &loggingDriver{logger: logging.WithComponent(logger, "card")}
}

func (d *loggingDriver) StartCapture(_ context.Context, entry recording.Entry) error {
	d.logger.Info("capture started",
		logging.EntryID(entry.ID),
		logging.Card(entry.Card),
		logging.String("title", entry.Title),
		logging.String("channel", entry.Channel))
	return nil
}

func (d *loggingDriver) StopCapture(_ context.Context, entry recording.Entry) error {
	d.logger.Info("capture stopped",
		logging.EntryID(entry.ID),
		logging.Card(entry.Card),
		logging.Filename(entry.Filename))
	return nil
}
