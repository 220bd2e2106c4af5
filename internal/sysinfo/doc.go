// Package sysinfo collects read-only facts about the running host.
//
// A Host is the boundary the tool handlers depend on. Collectors that the
// running OS cannot serve return ErrUnsupported. Output parsers for external
// commands (nmcli, netsh, schtasks, crontab) are portable so they can be
// exercised on any platform.
package sysinfo
