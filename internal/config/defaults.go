package config

const (
	defaultConfigPath               = "~/.config/cutroom/config.toml"
	defaultDataDir                  = "~/.local/share/cutroom"
	defaultLogDir                   = "~/.local/share/cutroom/logs"
	defaultSocketName               = "cutroom.sock"
	defaultEnginePath               = "ffmpeg"
	defaultProbePath                = "ffprobe"
	defaultInvocationTimeoutSeconds = 0
	defaultTempMaxAgeMinutes        = 360
	defaultNotifyRequestTimeout     = 10
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultLogRetentionDays         = 14
)

// MinTempMaxAgeMinutes is the shortest accepted cleanup.temp_max_age_minutes.
// Intermediates of a running render are younger than this between steps.
const MinTempMaxAgeMinutes = 30

// Range policies accepted by editing.range_policy.
const (
	RangePolicyPassthrough = "passthrough"
	RangePolicyReject      = "reject"
	RangePolicyClamp       = "clamp"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Engine: Engine{
			EnginePath:               defaultEnginePath,
			ProbePath:                defaultProbePath,
			InvocationTimeoutSeconds: defaultInvocationTimeoutSeconds,
		},
		Editing: Editing{
			RangePolicy: RangePolicyPassthrough,
		},
		Cleanup: Cleanup{
			TempMaxAgeMinutes: defaultTempMaxAgeMinutes,
			SweepOnStart:      true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Render:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
