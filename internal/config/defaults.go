package config

const (
	defaultDataDir          = "~/.local/share/tapedeck"
	defaultSpoolDir         = "~/.local/share/tapedeck/spool"
	defaultOutputDir        = "~/videos"
	defaultLogDir           = "~/.local/share/tapedeck/logs"
	defaultDatabase         = "recordings.xml"
	defaultCardCount        = 2
	defaultMaxQueueEntries  = 64
	defaultPollInterval     = 5
	defaultAutosaveInterval = 300
	defaultWorkers          = 2
	defaultEncoderBinary    = "ffmpeg"
	defaultHistoryDB        = "transcode.db"
	defaultProfilesFile     = "profiles.toml"
	defaultProfile          = "standard"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			SpoolDir:  defaultSpoolDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			Database:  defaultDatabase,
		},
		Scheduler: Scheduler{
			CardCount:        defaultCardCount,
			MaxQueueEntries:  defaultMaxQueueEntries,
			PollInterval:     defaultPollInterval,
			AutosaveInterval: defaultAutosaveInterval,
		},
		Transcode: Transcode{
			Workers:       defaultWorkers,
			EncoderBinary: defaultEncoderBinary,
			HistoryDB:     defaultHistoryDB,
		},
		Profiles: Profiles{
			File:    defaultProfilesFile,
			Default: defaultProfile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
