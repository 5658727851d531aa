package cmd

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/leave-management/internal/core/events"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect and replay leave domain events: publish a hand-written event through the outbox or straight to the notification handlers.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a leave event",
	Long: `Publish an event with a JSON payload. By default the event is written to the
outbox and delivered by the next dispatcher poll; --sync publishes it directly to
the in-process notification handlers.`,
	Args: cobra.ExactArgs(1),
	RunE: publishEvent,
}

var listEventTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the event types the dispatcher delivers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AllEventTypes {
			fmt.Println(t)
		}
	},
}

var (
	eventData string
	eventSync bool
)

func publishEvent(cmd *cobra.Command, args []string) error {
	eventType := args[0]
	if !slices.Contains(events.AllEventTypes, eventType) {
		return fmt.Errorf("unknown event type %q, see `event types`", eventType)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(eventData), &payload); err != nil {
		return fmt.Errorf("--data must be a JSON object: %w", err)
	}

	ctx := cmd.Context()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer closeWithTimeout(deps)
	log := deps.Logger

	event, err := events.NewEvent(eventType, deps.Clock.Now(), payload)
	if err != nil {
		return err
	}

	log.Info("publishing event", "event_type", eventType, "event_id", event.ID, "sync", eventSync)

	if eventSync {
		if err := deps.EventBus.PublishSync(ctx, event); err != nil {
			log.Error("failed to publish event", "error", err)
			return err
		}
	} else if err := deps.Outbox.Record(ctx, event); err != nil {
		log.Error("failed to record event", "error", err)
		return err
	}

	log.Info("event published successfully", "event_id", event.ID)
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "{}", "Event payload as a JSON object")
	publishEventCmd.Flags().BoolVar(&eventSync, "sync", false, "Deliver to the handlers now instead of through the outbox")

	eventCmd.AddCommand(publishEventCmd)
	eventCmd.AddCommand(listEventTypesCmd)

	rootCmd.AddCommand(eventCmd)
}
