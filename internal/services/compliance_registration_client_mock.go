package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fixzit/lease-engine/internal/data"
)

type ComplianceRegistrationClientMock struct {
	mock.Mock
}

func (m *ComplianceRegistrationClientMock) RegisterLease(ctx context.Context, lease *data.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

var _ ComplianceRegistrationClient = (*ComplianceRegistrationClientMock)(nil)
