package mux

import (
	"fmt"

	metrics "github.com/rcrowley/go-metrics"
	uuid "github.com/satori/go.uuid"
)

type channelStats struct {
	msgsSent     metrics.Counter
	msgsReceived metrics.Counter
	msgsDropped  metrics.Counter

	endpointsAttached metrics.Counter
	endpointsDetached metrics.Counter
}

func newChannelStats(memberId uuid.UUID) *channelStats {
	r := metrics.DefaultRegistry

	return &channelStats{
		msgsSent: metrics.NewRegisteredCounter(
			newChannelMetricName(memberId, "msgs.sent"), r),
		msgsReceived: metrics.NewRegisteredCounter(
			newChannelMetricName(memberId, "msgs.received"), r),
		msgsDropped: metrics.NewRegisteredCounter(
			newChannelMetricName(memberId, "msgs.dropped"), r),

		endpointsAttached: metrics.NewRegisteredCounter(
			newChannelMetricName(memberId, "endpoints.attached"), r),
		endpointsDetached: metrics.NewRegisteredCounter(
			newChannelMetricName(memberId, "endpoints.detached"), r)}
}

func newChannelMetricName(memberId uuid.UUID, name string) string {
	return fmt.Sprintf("sluice.mux.%v.%v", memberId, name)
}
