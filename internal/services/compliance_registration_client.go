package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/internal/data"
)

type ComplianceRegistrationType string

const (
	ComplianceRegistrationTypeDryRun ComplianceRegistrationType = "DRY_RUN"
	ComplianceRegistrationTypeNone   ComplianceRegistrationType = "NONE"
)

func ParseComplianceRegistrationType(s string) (ComplianceRegistrationType, error) {
	t := ComplianceRegistrationType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case ComplianceRegistrationTypeDryRun, ComplianceRegistrationTypeNone:
		return t, nil
	default:
		return "", fmt.Errorf("invalid compliance registration type %q", s)
	}
}

// ComplianceRegistrationClient submits newly activated leases to the rental registry.
type ComplianceRegistrationClient interface {
	RegisterLease(ctx context.Context, lease *data.Lease) error
}

func NewComplianceRegistrationClient(registrationType ComplianceRegistrationType) (ComplianceRegistrationClient, error) {
	switch registrationType {
	case ComplianceRegistrationTypeDryRun:
		return dryRunComplianceRegistrationClient{}, nil
	case ComplianceRegistrationTypeNone:
		return noopComplianceRegistrationClient{}, nil
	default:
		return nil, fmt.Errorf("unknown compliance registration type: %q", registrationType)
	}
}

type dryRunComplianceRegistrationClient struct{}

func (dryRunComplianceRegistrationClient) RegisterLease(ctx context.Context, lease *data.Lease) error {
	log.Ctx(ctx).
		WithField("lease_id", lease.ID).
		WithField("lease_number", lease.LeaseNumber).
		Infof("[DRY_RUN Compliance Registration] registering lease for unit %s from %s to %s",
			lease.UnitID, data.SQLDate(lease.StartDate), data.SQLDate(lease.EndDate))
	return nil
}

type noopComplianceRegistrationClient struct{}

func (noopComplianceRegistrationClient) RegisterLease(context.Context, *data.Lease) error {
	return nil
}

var (
	_ ComplianceRegistrationClient = dryRunComplianceRegistrationClient{}
	_ ComplianceRegistrationClient = noopComplianceRegistrationClient{}
)
