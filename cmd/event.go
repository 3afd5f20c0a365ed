package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/frahmantamala/rogue-contacts/internal/core/events"
	"github.com/frahmantamala/rogue-contacts/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect domain events: list event types and publish a test event through the audit log`,
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the domain event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AllTypes() {
			fmt.Println(t)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus and print the resulting audit line`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var eventData string

func publishTestEvent(ctx context.Context, eventType string) error {
	if !slices.Contains(events.AllTypes(), eventType) {
		return fmt.Errorf("unknown event type %q, expected one of: %s", eventType, strings.Join(events.AllTypes(), ", "))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.LoggerWrapper()
	eventBus := events.NewEventBus(log)
	if err := events.RegisterAuditLog(eventBus, log); err != nil {
		return err
	}

	testEvent := events.DomainEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	log.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)
	return eventBus.PublishSync(ctx, testEvent)
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(listEventsCmd)
	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
