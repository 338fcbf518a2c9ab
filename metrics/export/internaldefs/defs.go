// Package internaldefs holds the shared metric naming table used by every
// exporter. Kept out of the exporters so Prometheus and OTel render the same
// series names from one definition.
package internaldefs

import (
	"github.com/sessync/sessync"
)

// CounterDef names one exported counter series.
type CounterDef struct {
	ID   sessync.MetricID
	Name string
	Help string
}

// CounterDefs is the full exported counter table.
var CounterDefs = []CounterDef{
	{ID: sessync.MetricSessionFetch, Name: "sessync_session_fetch_total", Help: "Completed session endpoint round-trips."},
	{ID: sessync.MetricSessionFetchError, Name: "sessync_session_fetch_error_total", Help: "Failed session endpoint round-trips."},
	{ID: sessync.MetricSyncSkipped, Name: "sessync_sync_skipped_total", Help: "Synchronizer invocations that decided not to fetch."},
	{ID: sessync.MetricBroadcastSent, Name: "sessync_broadcast_sent_total", Help: "Messages posted to the broadcast channel."},
	{ID: sessync.MetricBroadcastReceived, Name: "sessync_broadcast_received_total", Help: "Messages delivered from other instances."},
	{ID: sessync.MetricSignIn, Name: "sessync_sign_in_total", Help: "Sign-in submissions that reached the backend."},
	{ID: sessync.MetricSignOut, Name: "sessync_sign_out_total", Help: "Sign-out submissions that reached the backend."},
}
