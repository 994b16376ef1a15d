package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/qgen/internal/config"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 4, 5, 6, 7, 890_000_000, time.FixedZone("CET", 3600))
}

func contextConfig() *config.WithPath {
	return &config.WithPath{
		Config: config.Config{
			Queues: []config.QueueConfig{
				{
					Name:          "repoSyncQueue",
					WorkerOptions: map[string]any{"concurrency": 3},
					QueueOptions:  map[string]any{"defaultJobOptions": map[string]any{"attempts": 3}},
					Jobs: []config.JobConfig{
						{
							Name:          "initRepoFetching",
							Payload:       config.PayloadConfig{Name: "RepoIdentifierSchema"},
							ProcessorPath: "./processors/x.ts",
						},
						{
							Name:          "fetchRepoMilestones",
							Payload:       config.PayloadConfig{Name: "RepoIdentifierSchema"},
							ProcessorPath: "../shared/milestones.ts",
						},
					},
				},
				{
					Name: "paginatedFetchingQueue",
					Jobs: []config.JobConfig{
						{
							Name:          "fetchRepoIssuesPaginated",
							Payload:       config.PayloadConfig{Name: "RepoPageSchema"},
							ProcessorPath: "/abs/processors/issues.ts",
						},
					},
				},
			},
			OutputPath:        "/proj/app/.out",
			SchemasPath:       "./schemas.ts",
			ConnectionFactory: "local",
			Connection:        config.ConnectionOptions{Host: "localhost", Port: 6379},
		},
		Path: "/proj/app/codegen.config.yml",
		Root: "/proj",
	}
}

func TestNewTemplateContext_ProcessorPaths(t *testing.T) {
	tc, err := NewTemplateContext(contextConfig(), fixedClock)
	require.NoError(t, err)

	jobs := tc.Jobs()
	require.Len(t, jobs, 3)

	// processorPath is relative to the config directory, /proj/app.
	assert.Equal(t, "../processors/x.ts", jobs[0].ProcessorPath)
	assert.Equal(t, "../../shared/milestones.ts", jobs[1].ProcessorPath)
	assert.Equal(t, "../../../abs/processors/issues.ts", jobs[2].ProcessorPath)
	assert.Equal(t, "../schemas.ts", tc.Paths.Schemas)
}

func TestNewTemplateContext_OutputDefaultsToRoot(t *testing.T) {
	cfg := contextConfig()
	cfg.OutputPath = ""
	cfg.SchemasPath = "schemas.ts"

	tc, err := NewTemplateContext(cfg, fixedClock)
	require.NoError(t, err)

	assert.Equal(t, "/proj", tc.Paths.OutputPath)
	assert.Equal(t, "app/processors/x.ts", tc.Jobs()[0].ProcessorPath)
	assert.Equal(t, "./app/schemas.ts", tc.Paths.Schemas)
}

func TestNewTemplateContext_Names(t *testing.T) {
	tc, err := NewTemplateContext(contextConfig(), fixedClock)
	require.NoError(t, err)

	job := tc.Queues[0].Jobs[0]
	assert.Equal(t, "initRepoFetching", job.Name)
	assert.Equal(t, "repoSyncQueue", job.Queue)
	assert.Equal(t, "addToInitRepoFetching", job.ProducerName)
	assert.Equal(t, "initRepoFetchingProcessor", job.ProcessorName)
	assert.Equal(t, "initRepoFetchingWorker", job.WorkerName)
}

func TestNamingRules(t *testing.T) {
	tests := []struct {
		in        string
		producer  string
		processor string
		worker    string
	}{
		{in: "sendEmail", producer: "addToSendEmail", processor: "sendEmailProcessor", worker: "sendEmailWorker"},
		{in: "send_email", producer: "addToSendEmail", processor: "sendEmailProcessor", worker: "sendEmailWorker"},
		{in: "SendEmail", producer: "addToSendEmail", processor: "sendEmailProcessor", worker: "sendEmailWorker"},
		{in: "send-email", producer: "addToSendEmail", processor: "sendEmailProcessor", worker: "sendEmailWorker"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.producer, ProducerName(tt.in))
			assert.Equal(t, tt.processor, ProcessorName(tt.in))
			assert.Equal(t, tt.worker, WorkerName(tt.in))
		})
	}
}

func TestNewTemplateContext_PassThrough(t *testing.T) {
	cfg := contextConfig()

	tc, err := NewTemplateContext(cfg, fixedClock)
	require.NoError(t, err)

	assert.Equal(t, cfg.Queues[0].WorkerOptions, tc.Queues[0].WorkerOptions)
	assert.Equal(t, cfg.Queues[0].QueueOptions, tc.Queues[0].QueueOptions)
	assert.Nil(t, tc.Queues[1].WorkerOptions)
	assert.Equal(t, map[string]any{"host": "localhost", "port": 6379}, tc.Connection)
	assert.Equal(t, "local", tc.ConnectionFactory)
	assert.Equal(t, []string{"RepoIdentifierSchema", "RepoPageSchema"}, tc.PayloadSchemas())
}

func TestNewTemplateContext_Meta(t *testing.T) {
	tc, err := NewTemplateContext(contextConfig(), fixedClock)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-04T04:06:07.890Z", tc.Meta.Timestamp)
	assert.Equal(t, "qgen", tc.Meta.GeneratedBy)
}
