package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateContainerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple", "mc1", nil},
		{"with separators", "my_server.v2-test", nil},
		{"empty", "", ErrContainerNameRequired},
		{"leading dash", "-mc", ErrContainerNameInvalid},
		{"slash", "../etc", ErrContainerNameInvalid},
		{"dot dot inside", "a..b", ErrContainerNameInvalid},
		{"space", "my server", ErrContainerNameInvalid},
		{"too long", strings.Repeat("a", 129), ErrContainerNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContainerName(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInferDeploymentType(t *testing.T) {
	tests := []struct {
		image string
		want  DeploymentType
	}{
		{"itzg/minecraft-server", DeploymentTypeMinecraft},
		{"ITZG/Minecraft-Server:latest", DeploymentTypeMinecraft},
		{"ghcr.io/acme/discord-bot", DeploymentTypeDiscordBot},
		{"node:20-alpine", DeploymentTypeMiniApp},
		{"nginx", DeploymentTypeMiniApp},
		{"postgres:16", DeploymentTypeCustom},
	}

	for _, tt := range tests {
		t.Run(tt.image, func(t *testing.T) {
			assert.Equal(t, tt.want, InferDeploymentType(tt.image, DefaultTypeRules))
		})
	}
}

func TestInferDeploymentType_FirstRuleWins(t *testing.T) {
	rules := []TypeRule{
		{Substring: "bot", Type: DeploymentTypeDiscordBot},
		{Substring: "minecraft", Type: DeploymentTypeMinecraft},
	}
	assert.Equal(t, DeploymentTypeDiscordBot, InferDeploymentType("minecraft-bot", rules))
}

func TestDeploymentStatusOf(t *testing.T) {
	assert.Equal(t, DeploymentRunning, DeploymentStatusOf("running"))
	for _, state := range []string{"exited", "created", "paused", "restarting", "removing", "dead", ""} {
		assert.Equal(t, DeploymentStopped, DeploymentStatusOf(state), state)
	}
}

func TestActionResult(t *testing.T) {
	assert.Equal(t, ActionResult{Status: "success", Message: "ok"}, Succeeded("ok"))
	assert.Equal(t, ActionResult{Status: "error", Message: "boom"}, Failed("boom"))
}

func TestJob_View(t *testing.T) {
	details := &JobDetails{ContainerID: "abc", HostPort: 25566}

	queued := &Job{ID: "j1", Status: JobQueued, Message: "queued"}
	assert.Equal(t, JobRunning, queued.View().Status)

	running := &Job{ID: "j1", Status: JobRunning, Message: "starting", Details: details}
	v := running.View()
	assert.Equal(t, JobRunning, v.Status)
	assert.Nil(t, v.Details)

	done := &Job{ID: "j1", Status: JobSuccess, Message: "started", Details: details}
	v = done.View()
	assert.Equal(t, JobSuccess, v.Status)
	assert.Equal(t, details, v.Details)

	assert.True(t, JobError.IsTerminal())
	assert.False(t, JobQueued.IsTerminal())
}
