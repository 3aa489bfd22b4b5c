package services

import (
	"github.com/stretchr/testify/mock"
)

// MockDatasetProvider is a mock for the DatasetProvider interface
type MockDatasetProvider struct {
	mock.Mock
}

func (m *MockDatasetProvider) Status() DatasetStatus {
	args := m.Called()
	return args.Get(0).(DatasetStatus)
}
