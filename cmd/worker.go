package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/internal/mq"
	"github.com/talentline/apiserver/types"
)

// workerCmd consumes application events published by the API server.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume application events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		broker, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("mq: %w", err)
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer broker.Close()

		logger.Info("worker started", "backend", broker.Name(), "channel", cfg.MQ.Channel)
		err = broker.Subscribe(logging.WithContext(cmd.Context(), logger), cfg.MQ.Channel, handleApplicationEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("worker stopped")
		return nil
	},
}

func handleApplicationEvent(ctx context.Context, msg mq.Message) error {
	var event types.ApplicationEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Redelivering a malformed payload cannot succeed.
		logging.FromContext(ctx).Error("discarding malformed event", "message_id", msg.ID, "error", err)
		return nil
	}

	logging.FromContext(ctx).Info("application event",
		"message_id", msg.ID,
		"type", event.Type,
		"application_id", event.ApplicationID,
		"job_id", event.JobID,
		"candidate_id", event.CandidateID,
		"status", event.Status,
		"occurred_at", event.OccurredAt,
	)
	return nil
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
