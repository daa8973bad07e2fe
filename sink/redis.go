package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aouyang1/go-ensemble"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by the Redis sink
const DefaultRedisPrefix = "ensemble"

// Redis stores a run under <prefix>:<id> as a hash of its summary, <prefix>:<id>:predictions and
// <prefix>:<id>:observations as lists and records the id at the head of <prefix>:runs
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis writes with client. A non positive ttl keeps the keys forever.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func toValues(x []float64) []any {
	res := make([]any, len(x))
	for i, v := range x {
		res[i] = formatFloat(v)
	}
	return res
}

func (r *Redis) RunKey(res *ensemble.Result) string {
	return fmt.Sprintf("%s:%s", r.prefix, res.ID)
}

func (r *Redis) RunsKey() string {
	return r.prefix + ":runs"
}

func (r *Redis) Write(ctx context.Context, res *ensemble.Result) error {
	if err := check(res); err != nil {
		return err
	}

	key := r.RunKey(res)
	predKey := key + ":predictions"
	obsKey := key + ":observations"

	fields := map[string]any{
		"selected":       res.Selected.String(),
		"selected_score": formatFloat(res.SelectedScore),
		"metric":         res.Metric.String(),
		"family":         res.Family.String(),
		"bagging":        strconv.FormatBool(res.Bagging),
		"policy":         res.Policy.String(),
		"frequency":      res.Frequency.String(),
		"steps":          len(res.Forecast.Predictions),
		"score":          formatFloat(res.Forecast.Score),
		"elapsed_ms":     res.Elapsed.Milliseconds(),
	}
	for _, st := range res.Summary.Strategies {
		fields["cv:"+st.Name.String()] = formatFloat(st.Mean)
		fields["cv:"+st.Name.String()+":excluded"] = st.Excluded
	}
	if len(res.T) > 0 {
		fields["start"] = res.T[0].Format(time.RFC3339)
		fields["end"] = res.T[len(res.T)-1].Format(time.RFC3339)
	}
	if res.Reservoir != nil {
		fields["reservoir_score"] = formatFloat(res.Reservoir.Score)
		if res.Reservoir.Err != "" {
			fields["reservoir_error"] = res.Reservoir.Err
		}
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key, predKey, obsKey)
	pipe.HSet(ctx, key, fields)
	pipe.RPush(ctx, predKey, toValues(res.Forecast.Predictions)...)
	pipe.RPush(ctx, obsKey, toValues(res.Forecast.Observations)...)
	pipe.LPush(ctx, r.RunsKey(), res.ID.String())
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
		pipe.Expire(ctx, predKey, r.ttl)
		pipe.Expire(ctx, obsKey, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write run %s to redis: %w", res.ID, err)
	}
	return nil
}
