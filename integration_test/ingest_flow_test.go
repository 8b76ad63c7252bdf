package integration_test

import (
	"context"
	"strings"
	"testing"

	"msgvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveIngestPipeline(t *testing.T) {
	env := NewTestEnvironment(t)

	body := `{
		"object": "page",
		"entry": [
			{
				"id": "page-1",
				"time": 1700000000000,
				"messaging": [
					{
						"sender": {"id": "user-42"},
						"recipient": {"id": "page-1"},
						"timestamp": 1700000000000,
						"message": {"mid": "m-1", "text": "hello there"}
					}
				]
			},
			{
				"id": "page-1",
				"time": 1700000000000,
				"changes": [
					{"field": "about", "value": {"page_id": "page-1"}}
				]
			}
		]
	}`

	require.NoError(t, env.Processor.ProcessWebhook(context.Background(), []byte(body)))

	events, err := env.DB.ListEvents(context.Background(), models.EventFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeWebhook, events[0].EventType)
	assert.False(t, events[0].Processed)

	require.Len(t, events[0].Messages, 1)
	msg := events[0].Messages[0]
	assert.Equal(t, "user-42", msg.SenderID)
	assert.Equal(t, "page-1", msg.RecipientID)
	assert.Equal(t, models.KindMessage, msg.Kind)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "hello there", *msg.Text)

	unresponded, err := env.DB.ListUnrespondedMessages(context.Background())
	require.NoError(t, err)
	assert.Len(t, unresponded, 1)

	names := env.AuditFileNames(t)
	require.Len(t, names, 3)

	var prefixes []string
	for _, name := range names {
		prefixes = append(prefixes, name[:strings.IndexByte(name, '_')+1])
	}
	assert.ElementsMatch(t, []string{"webhook_", "messaging_", "field_"}, prefixes)
}

func TestLiveIngestRejectsMalformedBody(t *testing.T) {
	env := NewTestEnvironment(t)

	err := env.Processor.ProcessWebhook(context.Background(), []byte("{not json"))
	require.Error(t, err)

	events, listErr := env.DB.ListEvents(context.Background(), models.EventFilter{Limit: 10})
	require.NoError(t, listErr)
	assert.Empty(t, events)
	assert.Empty(t, env.AuditFileNames(t))
}
