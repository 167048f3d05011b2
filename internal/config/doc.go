// Package config provides configuration for mdscribe.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← MDSCRIBE_*, highest priority
//	├─────────────────────────────┤
//	│  2. User Settings           │  ← ~/.config/mdscribe/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Layers are nested maps combined with loader.DeepMerge and decoded into a
// typed Config. Command line flags are applied by the caller on top.
//
// # Settings
//
//	[editor]
//	cursorTracking = "caret"   # or "end"
//	loadCursor     = "start"   # or "end"
//	welcomeFile    = ""        # markdown shown in new documents
//
//	[voice]
//	previewPartials = true
//	partialMarker   = "~"
//
//	[render]
//	hardWraps  = false
//	unsafe     = true
//	extensions = []            # empty selects gfm, linkify, tasklist
//
//	[watch]
//	enabled    = false
//	debounceMs = 100
//
//	[logging]
//	level = "info"
//
// # Environment Variables
//
// MDSCRIBE_SECTION_SETTING_NAME maps to section.settingName, for example
// MDSCRIBE_WATCH_DEBOUNCE_MS sets watch.debounceMs. MDSCRIBE_LOG_LEVEL is
// an alias for logging.level.
package config
