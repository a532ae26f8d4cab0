package skills

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

func TestZombieHunterScan(t *testing.T) {
	gw := new(mockGateway)
	scope := domain.Scope{Regions: []string{"us-east-1"}, AccountID: "111122223333"}

	gw.On("ListResources", mock.Anything, domain.ResourceVolume, "us-east-1", mock.Anything).Return(
		[]domain.Resource{
			{ID: "vol-123", State: "available", Attrs: map[string]string{"size_gb": "100", "volume_type": "gp3"}},
			{ID: "vol-456", State: "in-use", Attrs: map[string]string{"size_gb": "50"}},
		}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceAddress, "us-east-1", mock.Anything).Return(
		[]domain.Resource{
			{ID: "eipalloc-1", State: "unassociated", Attrs: map[string]string{"public_ip": "203.0.113.10"}},
		}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceNATGateway, "us-east-1", mock.Anything).Return(
		[]domain.Resource{
			{ID: "nat-idle", State: "available", Attrs: map[string]string{"bytes_out_7d": "0", "vpc_id": "vpc-1"}},
			{ID: "nat-busy", State: "available", Attrs: map[string]string{"bytes_out_7d": "52430"}},
			// Missing metrics must not produce a finding.
			{ID: "nat-nometrics", State: "available", Attrs: map[string]string{}},
		}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceInstance, "us-east-1", mock.Anything).Return(
		[]domain.Resource{
			{ID: "i-idle", State: "running", Attrs: map[string]string{"cpu_avg_7d": "0.8", "instance_type": "m5.large"}},
			{ID: "i-busy", State: "running", Attrs: map[string]string{"cpu_avg_7d": "41.2"}},
			{ID: "i-nometrics", State: "running", Attrs: map[string]string{}},
		}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceDBInstance, "us-east-1", mock.Anything).Return(
		[]domain.Resource{
			{ID: "db-idle", State: "available", Attrs: map[string]string{"connections_7d": "0"}},
			{ID: "db-busy", State: "available", Attrs: map[string]string{"connections_7d": "93"}},
		}, nil)

	result := NewZombieHunter(gw).Scan(context.Background(), scope)

	assert.Empty(t, result.Errors)
	var titles []string
	for _, f := range result.Findings {
		titles = append(titles, f.Title)
		assert.Equal(t, "zombie-hunter", f.Skill)
		assert.Equal(t, "111122223333", f.AccountID)
	}
	assert.Equal(t, []string{
		"Unattached EBS: vol-123",
		"Unused EIP: 203.0.113.10",
		"Unused NAT GW: nat-idle",
		"Idle EC2: i-idle",
		"Idle RDS: db-idle",
	}, titles)

	// 100 GB at the EBS monthly rate.
	assert.InDelta(t, 8.0, result.Findings[0].MonthlyImpact, 0.001)
	gw.AssertExpectations(t)
}

func TestZombieHunterPartialFailure(t *testing.T) {
	gw := new(mockGateway)
	scope := domain.Scope{Regions: []string{"us-east-1"}}

	gw.On("ListResources", mock.Anything, domain.ResourceVolume, "us-east-1", mock.Anything).
		Return(nil, errors.New("throttled"))
	gw.On("ListResources", mock.Anything, domain.ResourceAddress, "us-east-1", mock.Anything).Return(
		[]domain.Resource{
			{ID: "eipalloc-1", State: "unassociated", Attrs: map[string]string{"public_ip": "203.0.113.10"}},
		}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceNATGateway, "us-east-1", mock.Anything).
		Return([]domain.Resource{}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceInstance, "us-east-1", mock.Anything).
		Return([]domain.Resource{}, nil)
	gw.On("ListResources", mock.Anything, domain.ResourceDBInstance, "us-east-1", mock.Anything).
		Return([]domain.Resource{}, nil)

	result := NewZombieHunter(gw).Scan(context.Background(), scope)

	// One scanner failed, the rest still delivered their findings.
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "throttled")
	assert.Len(t, result.Findings, 1)
	assert.Equal(t, "Unused EIP: 203.0.113.10", result.Findings[0].Title)
}
