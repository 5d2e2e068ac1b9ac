package database

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
)

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Region: "eu-central-1"}.Enabled())
	assert.True(t, Config{Endpoint: "http://localhost:8000"}.Enabled())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("DYNAMODB_ENDPOINT", "http://dynamo:8000")
	t.Setenv("AWS_ID", "id")
	t.Setenv("AWS_SECRET", "secret")

	cfg := ConfigFromEnv()
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "http://dynamo:8000", cfg.Endpoint)
	assert.Equal(t, "id", cfg.AccessKey)
	assert.Equal(t, "secret", cfg.SecretKey)
	assert.Empty(t, cfg.SessionToken)
}

func TestUpdateUsesPositionalPlaceholders(t *testing.T) {
	u := (&Update{}).
		Set("status", String("playing")).
		Set("players", StringList([]string{"alice", "bob"}))

	assert.Equal(t, "SET #a0 = :v0, #a1 = :v1", u.Expression())
	assert.Equal(t, map[string]string{"#a0": "status", "#a1": "players"}, u.names)
	list, ok := u.values[":v1"].(*types.AttributeValueMemberL)
	if assert.True(t, ok) {
		assert.Len(t, list.Value, 2)
	}
}

func TestStringListMayBeEmpty(t *testing.T) {
	list, ok := StringList(nil).(*types.AttributeValueMemberL)
	assert.True(t, ok)
	assert.Empty(t, list.Value)
}

func TestStringKey(t *testing.T) {
	key := StringKey("id", "123456")
	assert.Equal(t, &types.AttributeValueMemberS{Value: "123456"}, key["id"])
}

func TestEmptyUpdateIsRejected(t *testing.T) {
	var table Table
	assert.Error(t, table.Update(context.Background(), StringKey("id", "x"), &Update{}))
}
