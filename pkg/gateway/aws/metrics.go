package aws

import (
	"context"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// metricStat fetches one statistic over the trailing window for a single
// dimension. Lookup failures degrade to (0, false): idle detection then
// treats the resource as active rather than flagging on missing data.
func metricStat(
	ctx context.Context,
	client *cloudwatch.Client,
	namespace, metricName, dimensionName, dimensionValue string,
	stat cwtypes.Statistic,
	windowDays int,
) (float64, bool) {
	end := time.Now()
	start := end.AddDate(0, 0, -windowDays)

	out, err := client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  awssdk.String(namespace),
		MetricName: awssdk.String(metricName),
		Dimensions: []cwtypes.Dimension{{
			Name:  awssdk.String(dimensionName),
			Value: awssdk.String(dimensionValue),
		}},
		StartTime:  awssdk.Time(start),
		EndTime:    awssdk.Time(end),
		Period:     awssdk.Int32(int32(windowDays * 24 * 3600)),
		Statistics: []cwtypes.Statistic{stat},
	})
	if err != nil || len(out.Datapoints) == 0 {
		return 0, false
	}

	dp := out.Datapoints[0]
	switch stat {
	case cwtypes.StatisticAverage:
		return awssdk.ToFloat64(dp.Average), true
	case cwtypes.StatisticSum:
		return awssdk.ToFloat64(dp.Sum), true
	default:
		return 0, false
	}
}
