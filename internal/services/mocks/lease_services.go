package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/services"
)

type MockLeaseLifecycleService struct {
	mock.Mock
}

var _ services.LeaseLifecycleServiceInterface = new(MockLeaseLifecycleService)

func (m *MockLeaseLifecycleService) CreateLease(ctx context.Context, req services.CreateLeaseRequest) (*data.Lease, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Lease), args.Error(1)
}

func (m *MockLeaseLifecycleService) ActivateLease(ctx context.Context, organizationID, leaseID string) (*data.Lease, error) {
	args := m.Called(ctx, organizationID, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Lease), args.Error(1)
}

func (m *MockLeaseLifecycleService) RenewLease(ctx context.Context, req services.RenewLeaseRequest) (*services.RenewLeaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RenewLeaseResult), args.Error(1)
}

func (m *MockLeaseLifecycleService) TerminateLease(ctx context.Context, req services.TerminateLeaseRequest) (*services.TerminateLeaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TerminateLeaseResult), args.Error(1)
}

func (m *MockLeaseLifecycleService) GetLeaseByID(ctx context.Context, organizationID, leaseID string) (*data.Lease, error) {
	args := m.Called(ctx, organizationID, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Lease), args.Error(1)
}

func (m *MockLeaseLifecycleService) GetLeasesByProperty(ctx context.Context, organizationID, propertyID string, statuses []data.LeaseStatus) ([]*data.Lease, error) {
	args := m.Called(ctx, organizationID, propertyID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.Lease), args.Error(1)
}

func (m *MockLeaseLifecycleService) GetExpiringLeases(ctx context.Context, organizationID string, withinDays int) ([]*data.Lease, error) {
	args := m.Called(ctx, organizationID, withinDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.Lease), args.Error(1)
}

type MockLeaseExpiryNotificationService struct {
	mock.Mock
}

var _ services.LeaseExpiryNotificationServiceInterface = new(MockLeaseExpiryNotificationService)

func (m *MockLeaseExpiryNotificationService) ProcessLeaseExpiryNotifications(ctx context.Context, req services.ProcessLeaseExpiryNotificationsRequest) (*services.LeaseExpiryNotificationReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LeaseExpiryNotificationReport), args.Error(1)
}

type MockLeaseAutoRenewalService struct {
	mock.Mock
}

var _ services.LeaseAutoRenewalServiceInterface = new(MockLeaseAutoRenewalService)

func (m *MockLeaseAutoRenewalService) ProcessAutoRenewals(ctx context.Context, req services.ProcessAutoRenewalsRequest) (*services.LeaseAutoRenewalReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LeaseAutoRenewalReport), args.Error(1)
}
