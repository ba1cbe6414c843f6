package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// SurveyClient implements ports.SurveyStarter on a Temporal client.
type SurveyClient struct {
	client    client.Client
	taskQueue string
}

// NewSurveyClient creates a starter submitting to taskQueue.
func NewSurveyClient(c client.Client, taskQueue string) *SurveyClient {
	return &SurveyClient{client: c, taskQueue: taskQueue}
}

// WorkflowID is the id of the survey writing the named set. One survey per
// set runs at a time.
func WorkflowID(name string) string {
	return "tile-survey-" + name
}

func (c *SurveyClient) StartSurvey(ctx context.Context, name string, level int, area domain.Rectangle) (string, error) {
	run, err := c.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(name),
		TaskQueue: c.taskQueue,
	}, TileSurveyWorkflow, SurveyInput{Name: name, Level: level, Area: area})
	if err != nil {
		return "", fmt.Errorf("start survey %s: %w", name, err)
	}
	return run.GetRunID(), nil
}
