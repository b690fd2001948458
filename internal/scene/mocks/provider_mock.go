package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyteller-server/internal/models"
)

// ProviderMock is a testify mock of scene.Provider.
type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) GenerateScene(ctx context.Context, req models.SceneRequest) (*models.SceneContent, error) {
	args := m.Called(ctx, req)

	var content *models.SceneContent
	if args.Get(0) != nil {
		content = args.Get(0).(*models.SceneContent)
	}
	return content, args.Error(1)
}
