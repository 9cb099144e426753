package module

import (
	"time"

	"swearjar/internal/platform/config"
	"swearjar/internal/services/bridge/domain"
)

// FromConfig fills domain.Config from environment, namespaced under the
// fixed CORE_BRIDGE_ prefix; bridge instances for different resources
// (tenders, agreements, plans, ...) run as separate processes, one each
// CORE_BRIDGE_BASE_URL (default "https://public.api.openprocurement.org") is the procurement API root
// CORE_BRIDGE_RESOURCE (default "tenders") is the plural resource kind
// CORE_BRIDGE_MODE (default "bulk") selects "bulk" (C5a) or "dispatch" (C5b)
// CORE_BRIDGE_WORKERS (default 4) is the number of concurrent worker loops
// CORE_BRIDGE_CLIENTS (default 4) is the number of API client leases in the pool
// CORE_BRIDGE_CLIENT_INC_STEP (default 1s) is the additive throttle step on 429
// CORE_BRIDGE_CLIENT_DEC_STEP (default 1s) is the subtractive throttle step on success
// CORE_BRIDGE_DROP_THRESHOLD_COOKIES (default 30s) hard-resets the throttle and clears cookies above this
// CORE_BRIDGE_WORKER_SLEEP (default 1s) is the idle backoff when no lease or item is available
// CORE_BRIDGE_RETRY_TIMEOUT (default 5s) is the base retry backoff unit
// CORE_BRIDGE_RETRIES_COUNT (default 10) is the retry budget per item
// CORE_BRIDGE_QUEUE_TIMEOUT (default 2s) bounds lease acquisition and queue pop waits
// CORE_BRIDGE_BULK_SAVE_LIMIT (default 100) is the mode A flush size trigger
// CORE_BRIDGE_BULK_SAVE_INTERVAL (default 10s) is the mode A flush wall-time trigger
// CORE_BRIDGE_TIMEZONE (default "Europe/Kiev") is used only for timeshift logging
func FromConfig(cfg config.Conf) domain.Config {
	n := cfg.Prefix("CORE_BRIDGE_")
	return domain.Config{
		BaseURL:  n.MayString("BASE_URL", "https://public.api.openprocurement.org"),
		Resource: n.MayString("RESOURCE", "tenders"),
		Mode:     domain.Mode(n.MayEnum("MODE", string(domain.ModeBulk), string(domain.ModeBulk), string(domain.ModeDispatch))),

		Workers: n.MayInt("WORKERS", 4),
		Clients: n.MayInt("CLIENTS", 4),

		ClientIncStepTimeout:       n.MayDuration("CLIENT_INC_STEP", time.Second),
		ClientDecStepTimeout:       n.MayDuration("CLIENT_DEC_STEP", time.Second),
		DropThresholdClientCookies: n.MayDuration("DROP_THRESHOLD_COOKIES", 30*time.Second),
		WorkerSleep:                n.MayDuration("WORKER_SLEEP", time.Second),
		RetryDefaultTimeout:        n.MayDuration("RETRY_TIMEOUT", 5*time.Second),
		RetriesCount:               n.MayInt("RETRIES_COUNT", 10),
		QueueTimeout:               n.MayDuration("QUEUE_TIMEOUT", 2*time.Second),
		BulkSaveLimit:              n.MayInt("BULK_SAVE_LIMIT", 100),
		BulkSaveInterval:           n.MayDuration("BULK_SAVE_INTERVAL", 10*time.Second),

		Timezone: n.MayString("TIMEZONE", "Europe/Kiev"),
	}
}
