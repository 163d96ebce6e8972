// Command demo drives one work order through the runtime against the mock
// backend, printing every event as it streams and the final receipt.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/agent-backplane/abp/backend/mock"
	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/runtime"
	"github.com/agent-backplane/abp/telemetry"
)

func main() {
	ctx := context.Background()

	rt := runtime.NewRuntime(telemetry.NewNoopLogger())
	rt.RegisterBackend("mock", mock.New())

	wo := contract.NewWorkOrderBuilder("Say hello and summarize this repository").
		Workspace(contract.WorkspaceSpec{Mode: contract.WorkspacePassThrough, Root: "."}).
		Build()

	run := runtime.NewCancellableRun(runtime.NewCancellationToken())
	handle, err := rt.RunStreaming(ctx, "mock", wo, run)
	if err != nil {
		log.Fatalf("run streaming: %v", err)
	}

	for event := range handle.Events {
		fmt.Printf("[%s] %s\n", event.Kind.Type(), event.Timestamp.Format("15:04:05.000"))
	}

	result := <-handle.Receipt
	if result.Err != nil {
		log.Fatalf("run failed: %v", result.Err)
	}

	fmt.Printf("run %s finished: outcome=%s backend=%s\n",
		result.Receipt.Meta.RunID, result.Receipt.Outcome, result.Receipt.Backend.ID)

	snap := rt.Metrics().Snapshot()
	fmt.Printf("metrics: total=%d successful=%d failed=%d avg_duration_ms=%d\n",
		snap.TotalRuns, snap.SuccessfulRuns, snap.FailedRuns, snap.AverageRunDurationMS)
}
