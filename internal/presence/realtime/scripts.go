package realtime

import "github.com/redis/go-redis/v9"

// Every script stamps last_changed from the server clock, bumped past the
// stored value so a user's timestamps strictly increase, and appends the
// write to the event stream.
//
// KEYS: status hash, stream, testament, leases. ARGV[1] is the user id and
// ARGV[2] the stream length cap.
const writeStatus = `
local function now_ms()
  local t = redis.call('TIME')
  return tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
end

local function write_status(state)
  local stamp = now_ms()
  local cur = tonumber(redis.call('HGET', KEYS[1], 'last_changed') or '0')
  if stamp <= cur then
    stamp = cur + 1
  end
  redis.call('HSET', KEYS[1], 'state', state, 'last_changed', stamp)
  redis.call('XADD', KEYS[2], 'MAXLEN', ARGV[2], '*', 'uid', ARGV[1], 'state', state, 'last_changed', stamp)
  return stamp
end

local function fire_testament()
  local testament = redis.call('GET', KEYS[3])
  redis.call('ZREM', KEYS[4], ARGV[1])
  if not testament then
    return 0
  end
  redis.call('DEL', KEYS[3])
  return write_status(testament)
end
`

// connectScript registers the disconnect testament and the lease, then
// writes online. ARGV[3] is the lease TTL in ms.
var connectScript = redis.NewScript(writeStatus + `
redis.call('SET', KEYS[3], 'offline')
redis.call('ZADD', KEYS[4], now_ms() + tonumber(ARGV[3]), ARGV[1])
return write_status('online')
`)

// heartbeatScript extends a live lease. It returns 0 when there is none.
var heartbeatScript = redis.NewScript(writeStatus + `
if not redis.call('ZSCORE', KEYS[4], ARGV[1]) then
  return 0
end
redis.call('ZADD', KEYS[4], now_ms() + tonumber(ARGV[3]), ARGV[1])
return 1
`)

// disconnectScript fires the testament if one is registered. It returns the
// new last_changed or 0 when the testament was already fired.
var disconnectScript = redis.NewScript(writeStatus + `
return fire_testament()
`)

// reapScript fires the testament only if the lease is still expired, so a
// heartbeat racing the reaper wins.
var reapScript = redis.NewScript(writeStatus + `
local expiry = redis.call('ZSCORE', KEYS[4], ARGV[1])
if not expiry or tonumber(expiry) > now_ms() then
  return 0
end
return fire_testament()
`)

// nowScript reads the server clock in ms.
var nowScript = redis.NewScript(`
local t = redis.call('TIME')
return tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
`)
