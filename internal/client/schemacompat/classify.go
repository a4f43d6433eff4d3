package schemacompat

import "strings"

// Feature names a group of schema objects introduced together.
type Feature string

const (
	FeatureChannelSettings     Feature = "channel_settings"
	FeatureDMTheme             Feature = "dm_theme"
	FeatureDMConversationState Feature = "dm_conversation_state"
	FeatureProfileComments     Feature = "profile_comments"
	FeatureGlytchDirectory     Feature = "glytch_directory"
)

// Predicate reports whether an error message matches a feature area.
type Predicate func(message string) bool

// rule lists identifiers that match on their own, and identifiers that
// match only together with "does not exist".
type rule struct {
	names   []string
	missing []string
}

func (r rule) match(message string) bool {
	m := strings.ToLower(message)
	for _, n := range r.names {
		if strings.Contains(m, n) {
			return true
		}
	}
	if !strings.Contains(m, "does not exist") {
		return false
	}
	for _, n := range r.missing {
		if strings.Contains(m, n) {
			return true
		}
	}
	return false
}

var rules = map[Feature]rule{
	// Channel settings also covers voice moderation, bans, unban requests
	// and the moderation bot, which shipped in the same migration.
	FeatureChannelSettings: {
		names: []string{
			"glytch_channels.text_post_mode",
			"glytch_channels.voice_user_limit",
			"glytch_channels.channel_theme",
			"voice_participants.moderator_forced_muted",
			"voice_participants.moderator_forced_deafened",
			"glytch_bans",
			"glytch_unban_requests",
			"glytch_bot_settings",
			"set_glytch_channel_settings",
			"set_glytch_channel_theme",
			"ban_user_from_glytch",
			"unban_user_from_glytch",
			"kick_member_from_glytch",
			"get_glytch_bot_settings",
			"set_glytch_bot_settings",
			"send_glytch_bot_dm_notice",
			"submit_glytch_unban_request",
			"review_glytch_unban_request",
			"p_force_muted",
			"p_force_deafened",
		},
		missing: []string{
			"text_post_mode",
			"voice_user_limit",
			"channel_theme",
			"moderator_forced_muted",
			"moderator_forced_deafened",
			"glytch_bans",
			"glytch_unban_requests",
			"glytch_bot_settings",
		},
	},
	FeatureDMTheme: {
		names:   []string{"dm_conversations.dm_theme", "set_dm_conversation_theme"},
		missing: []string{"dm_theme"},
	},
	FeatureDMConversationState: {
		names: []string{
			"list_dm_conversations_for_user",
			"hide_dm_conversation",
			"set_dm_conversation_pinned",
			"dm_conversation_user_state",
		},
	},
	FeatureProfileComments: {
		names: []string{"profile_comments"},
	},
	FeatureGlytchDirectory: {
		names: []string{
			"glytches.is_public",
			"glytches.max_members",
			"join_public_glytch",
			"search_public_glytches",
			"set_glytch_profile",
		},
		missing: []string{"is_public", "max_members"},
	},
}

// featureOrder keeps Classify output stable.
var featureOrder = []Feature{
	FeatureChannelSettings,
	FeatureDMTheme,
	FeatureDMConversationState,
	FeatureProfileComments,
	FeatureGlytchDirectory,
}

func MissingChannelSettings(message string) bool {
	return rules[FeatureChannelSettings].match(message)
}

func MissingDMTheme(message string) bool {
	return rules[FeatureDMTheme].match(message)
}

func MissingDMConversationState(message string) bool {
	return rules[FeatureDMConversationState].match(message)
}

func MissingProfileComments(message string) bool {
	return rules[FeatureProfileComments].match(message)
}

func MissingGlytchDirectory(message string) bool {
	return rules[FeatureGlytchDirectory].match(message)
}

// AnyOf matches when at least one predicate does.
func AnyOf(preds ...Predicate) Predicate {
	return func(message string) bool {
		for _, p := range preds {
			if p(message) {
				return true
			}
		}
		return false
	}
}

// Classify lists every feature area the message matches.
func Classify(message string) []Feature {
	var out []Feature
	for _, f := range featureOrder {
		if rules[f].match(message) {
			out = append(out, f)
		}
	}
	return out
}

// SingleSessionConflict reports that another session holds the account's
// single-session lock. It is not a schema condition.
func SingleSessionConflict(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "already active in another session") ||
		strings.Contains(m, "another active session") ||
		strings.Contains(m, "single session")
}
