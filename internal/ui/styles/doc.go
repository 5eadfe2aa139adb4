// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the CourseCraft TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Navy - Brand color for the header and advisor name
  - Cyan - Commands, focus rings and the student's name
  - Purple - Course codes and the selected course card
  - Emerald, Amber, Rose - Success, favorites/warnings, errors

StatusIndicators pair every colored state with an ASCII shape so meaning
never depends on color alone.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetCompact(cfg.UI.CompactMode)
	theme.SetSize(width, height)

	bubble := theme.AdvisorBubble.Width(theme.BubbleWidth()).Render(text)
*/
package styles
