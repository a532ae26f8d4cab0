package aws

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/health"
	healthtypes "github.com/aws/aws-sdk-go-v2/service/health/types"
	"github.com/aws/aws-sdk-go-v2/service/support"
	"github.com/aws/smithy-go"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

const healthEventWindowDays = 7

// advisorCategories are the Trusted Advisor categories worth surfacing;
// the rest are service-limit noise already covered by quota listings.
var advisorCategories = map[string]bool{
	"cost_optimizing": true,
	"security":        true,
	"fault_tolerance": true,
	"performance":     true,
}

// globalEndpointConfig pins the copy to us-east-1. The Health and Support
// APIs are only served from that region regardless of where resources live.
func globalEndpointConfig(cfg awssdk.Config) awssdk.Config {
	c := cfg.Copy()
	c.Region = DefaultRegion
	return c
}

// subscriptionError maps the subscription-required refusal both APIs return
// for accounts without a Business or Enterprise support plan. Callers can
// match on the kind and degrade instead of failing the scan.
func subscriptionError(err error, msg string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "SubscriptionRequiredException" {
		return domain.WrapError(domain.KindUpstreamUnavailable, err, "%s", msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func listHealthEvents(ctx context.Context, cfg awssdk.Config) ([]domain.Resource, error) {
	client := health.NewFromConfig(globalEndpointConfig(cfg))

	since := time.Now().AddDate(0, 0, -healthEventWindowDays)
	out, err := client.DescribeEvents(ctx, &health.DescribeEventsInput{
		Filter: &healthtypes.EventFilter{
			StartTimes: []healthtypes.DateTimeRange{{From: awssdk.Time(since)}},
			EventStatusCodes: []healthtypes.EventStatusCode{
				healthtypes.EventStatusCodeOpen,
				healthtypes.EventStatusCodeUpcoming,
				healthtypes.EventStatusCodeClosed,
			},
		},
		MaxResults: awssdk.Int32(50),
	})
	if err != nil {
		return nil, subscriptionError(err, "failed to describe health events")
	}

	resources := make([]domain.Resource, 0, len(out.Events))
	for _, ev := range out.Events {
		arn := awssdk.ToString(ev.Arn)
		attrs := map[string]string{
			"service":  awssdk.ToString(ev.Service),
			"category": string(ev.EventTypeCategory),
		}
		if desc := eventDescription(ctx, client, arn); desc != "" {
			attrs["description"] = desc
		}
		if entities := affectedEntities(ctx, client, arn); len(entities) > 0 {
			attrs["affected"] = strings.Join(entities, ",")
		}
		resources = append(resources, domain.Resource{
			ID:        arn,
			Kind:      domain.ResourceHealthEvent,
			Region:    awssdk.ToString(ev.Region),
			State:     string(ev.StatusCode),
			CreatedAt: awssdk.ToTime(ev.StartTime),
			Attrs:     attrs,
		})
	}
	return resources, nil
}

func eventDescription(ctx context.Context, client *health.Client, arn string) string {
	out, err := client.DescribeEventDetails(ctx, &health.DescribeEventDetailsInput{
		EventArns: []string{arn},
	})
	if err != nil {
		return ""
	}
	for _, detail := range out.SuccessfulSet {
		if detail.EventDescription == nil {
			continue
		}
		desc := awssdk.ToString(detail.EventDescription.LatestDescription)
		if len(desc) > 200 {
			desc = desc[:200]
		}
		return desc
	}
	return ""
}

func affectedEntities(ctx context.Context, client *health.Client, arn string) []string {
	out, err := client.DescribeAffectedEntities(ctx, &health.DescribeAffectedEntitiesInput{
		Filter:     &healthtypes.EntityFilter{EventArns: []string{arn}},
		MaxResults: awssdk.Int32(10),
	})
	if err != nil {
		return nil
	}
	values := make([]string, 0, len(out.Entities))
	for _, e := range out.Entities {
		if v := awssdk.ToString(e.EntityValue); v != "" && v != "UNKNOWN" {
			values = append(values, v)
		}
	}
	return values
}

func listAdvisorChecks(ctx context.Context, cfg awssdk.Config) ([]domain.Resource, error) {
	client := support.NewFromConfig(globalEndpointConfig(cfg))

	checks, err := client.DescribeTrustedAdvisorChecks(ctx, &support.DescribeTrustedAdvisorChecksInput{
		Language: awssdk.String("en"),
	})
	if err != nil {
		return nil, subscriptionError(err, "failed to describe trusted advisor checks")
	}

	var resources []domain.Resource
	for _, check := range checks.Checks {
		if !advisorCategories[awssdk.ToString(check.Category)] {
			continue
		}
		result, err := client.DescribeTrustedAdvisorCheckResult(ctx, &support.DescribeTrustedAdvisorCheckResultInput{
			CheckId:  check.Id,
			Language: awssdk.String("en"),
		})
		if err != nil || result.Result == nil {
			continue
		}
		desc := awssdk.ToString(check.Description)
		if len(desc) > 100 {
			desc = desc[:100]
		}
		resources = append(resources, domain.Resource{
			ID:    awssdk.ToString(check.Id),
			Kind:  domain.ResourceAdvisorCheck,
			State: awssdk.ToString(result.Result.Status),
			Attrs: map[string]string{
				"name":          awssdk.ToString(check.Name),
				"category":      awssdk.ToString(check.Category),
				"description":   desc,
				"flagged_count": strconv.Itoa(len(result.Result.FlaggedResources)),
			},
		})
	}
	return resources, nil
}
