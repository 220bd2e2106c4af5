package sysinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNmcli_GroupsAccessPointsBySSID(t *testing.T) {
	out := []byte(strings.Join([]string{
		`HomeNet:AA\:BB\:CC\:DD\:EE\:01:72:6:WPA2:pair_ccmp group_ccmp psk:(none)`,
		`HomeNet:AA\:BB\:CC\:DD\:EE\:02:40:36:WPA2:pair_ccmp group_ccmp psk:(none)`,
		`Cafe\:Guest:11\:22\:33\:44\:55\:66:55:11::(none):(none)`,
	}, "\n"))

	nets := ParseNmcli(out)
	require.Len(t, nets, 2)
	require.Equal(t, "HomeNet", nets[0].SSID)
	require.Equal(t, "WPA2", nets[0].Authentication)
	require.Equal(t, "CCMP", nets[0].Encryption)
	require.Equal(t, []BSSID{
		{BSSID: "aa:bb:cc:dd:ee:01", SignalPercent: 72, Channel: 6},
		{BSSID: "aa:bb:cc:dd:ee:02", SignalPercent: 40, Channel: 36},
	}, nets[0].BSSIDs)

	require.Equal(t, "Cafe:Guest", nets[1].SSID)
	require.Equal(t, "Open", nets[1].Authentication)
	require.Equal(t, "None", nets[1].Encryption)
}

func TestParseNetsh(t *testing.T) {
	out := []byte(`
Interface name : Wi-Fi
There are 2 networks currently visible.

SSID 1 : HomeNet
    Network type            : Infrastructure
    Authentication          : WPA2-Personal
    Encryption              : CCMP
    BSSID 1                 : AA:BB:CC:DD:EE:01
         Signal             : 72%
         Radio type         : 802.11ac
         Channel            : 36
    BSSID 2                 : aa:bb:cc:dd:ee:02
         Signal             : 31%
         Channel            : 1

SSID 2 : 
    Authentication          : Open
    Encryption              : None
`)
	nets := ParseNetsh(out)
	require.Len(t, nets, 2)
	require.Equal(t, WiFiNetwork{
		SSID:           "HomeNet",
		Authentication: "WPA2-Personal",
		Encryption:     "CCMP",
		BSSIDs: []BSSID{
			{BSSID: "aa:bb:cc:dd:ee:01", SignalPercent: 72, Channel: 36},
			{BSSID: "aa:bb:cc:dd:ee:02", SignalPercent: 31, Channel: 1},
		},
	}, nets[0])
	require.Equal(t, "", nets[1].SSID)
	require.Equal(t, "Open", nets[1].Authentication)
}

func TestParseSchtasksCSV_SkipsRepeatedHeaders(t *testing.T) {
	header := `"HostName","TaskName","Next Run Time","Status","Logon Mode","Last Run Time","Last Result","Author","Task To Run","Start In","Comment","Scheduled Task State","Schedule Type","Start Time"`
	out := []byte(strings.Join([]string{
		header,
		`"PC","\Backup","1/2/2025 3:00:00 AM","Ready","Interactive","1/1/2025 3:00:00 AM","0","me","C:\backup.exe","N/A","","Enabled","Daily","3:00:00 AM"`,
		"",
		header,
		`"PC","\Microsoft\Windows\Defrag\ScheduledDefrag","N/A","Disabled","Interactive","N/A","1","Microsoft","defrag.exe -c","N/A","","Disabled","Weekly","N/A"`,
	}, "\r\n"))

	tasks, err := ParseSchtasksCSV(out)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, ScheduledTask{
		Name: "Backup", Path: `\Backup`, Enabled: true, State: "Ready",
		NextRun: "1/2/2025 3:00:00 AM", LastRun: "1/1/2025 3:00:00 AM",
		Triggers: "Daily at 3:00:00 AM", Actions: `C:\backup.exe`,
	}, tasks[0])
	require.Equal(t, "ScheduledDefrag", tasks[1].Name)
	require.False(t, tasks[1].Enabled)
	require.Equal(t, "Weekly", tasks[1].Triggers)
}

func TestParseCrontab(t *testing.T) {
	data := []byte(`SHELL=/bin/sh
# m h dom mon dow user	command
17 *	* * *	root    cd / && run-parts --report /etc/cron.hourly
@reboot root /usr/local/bin/warmup
30 2 * jan-mar mon root /usr/bin/backup --full
bogus line
`)
	tasks := ParseCrontab("/etc/crontab", data, true)
	require.Len(t, tasks, 3)
	require.Equal(t, "crontab:3", tasks[0].Name)
	require.Equal(t, "17 * * * * (as root)", tasks[0].Triggers)
	require.Equal(t, "cd / && run-parts --report /etc/cron.hourly", tasks[0].Actions)
	require.Equal(t, "@reboot (as root)", tasks[1].Triggers)
	require.Equal(t, "/usr/bin/backup --full", tasks[2].Actions)

	user := ParseCrontab("/var/spool/cron/crontabs/me", []byte("*/5 * * * * /home/me/poll.sh\n"), false)
	require.Len(t, user, 1)
	require.Equal(t, "*/5 * * * *", user[0].Triggers)
	require.True(t, user[0].Enabled)
}

func TestParseStat_NameWithSpacesAndParens(t *testing.T) {
	line := "4242 (tmux: server (x)) S 1 4242 4242 0 -1 4194560 100 0 0 0 250 50 0 0 20 0 3 0 98765 1000000 512 18446744073709551615"
	st, err := parseStat([]byte(line))
	require.NoError(t, err)
	require.Equal(t, procStat{
		Name: "tmux: server (x)", State: "S", PPID: 1, Ticks: 300,
		Threads: 3, StartTick: 98765, RSSPages: 512,
	}, st)

	_, err = parseStat([]byte("garbage"))
	require.Error(t, err)
}

func TestParseMeminfo(t *testing.T) {
	mi := parseMeminfo(strings.NewReader("MemTotal:       16000000 kB\nMemAvailable:    8000000 kB\nHugePages_Total:       0\n"))
	require.Equal(t, uint64(16000000*1024), mi["MemTotal"])
	require.Equal(t, uint64(8000000*1024), mi["MemAvailable"])
	require.Equal(t, uint64(0), mi["HugePages_Total"])
}

func TestCPUTicksAndBootTime(t *testing.T) {
	stat := []byte("cpu  10 20 30 40 0 0 0 0 0 0\ncpu0 5 10 15 20 0 0 0 0 0 0\nbtime 1700000000\n")
	require.Equal(t, uint64(100), cpuTotalTicks(stat))
	require.Equal(t, int64(1700000000), bootTime(stat))
}

func TestParseProcNet(t *testing.T) {
	tcp := `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:0CEA 00000000:0000 0A 00000000:00000000 00:00000000 00000000   113        0 22045 1 0000000000000000 100 0 0 10 0
   1: 0F02000A:A2C4 22D8B85D:01BB 01 00000000:00000000 02:000A7B2C 00000000  1000        0 99887 2 0000000000000000 20 4 30 10 -1
`
	got := parseProcNet(strings.NewReader(tcp), "tcp")
	require.Len(t, got, 2)
	require.Equal(t, Connection{LAddr: "127.0.0.1:3306", RAddr: "", Status: "LISTEN", Proto: "tcp"}, got[0].Conn)
	require.Equal(t, uint64(22045), got[0].Inode)
	require.Equal(t, "10.0.2.15:41668", got[1].Conn.LAddr)
	require.Equal(t, "93.184.216.34:443", got[1].Conn.RAddr)
	require.Equal(t, "ESTABLISHED", got[1].Conn.Status)

	udp6 := `  sl  local_address                         remote_address                        st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops
  0: 00000000000000000000000001000000:0035 00000000000000000000000000000000:0000 07 00000000:00000000 00:00000000 00000000     0        0 1234 2 0000000000000000 0
`
	got = parseProcNet(strings.NewReader(udp6), "udp6")
	require.Len(t, got, 1)
	require.Equal(t, Connection{LAddr: "[::1]:53", Status: "NONE", Proto: "udp"}, got[0].Conn)
}

func TestParseMounts(t *testing.T) {
	in := `sysfs /sys sysfs rw 0 0
/dev/sda1 / ext4 rw,relatime 0 0
/dev/sdb1 /mnt/My\040Disk vfat rw 0 0
/dev/sda1 /var/lib/docker ext4 rw 0 0
tmpfs /run tmpfs rw 0 0
`
	require.Equal(t, []mount{
		{Device: "/dev/sda1", MountPoint: "/", FSType: "ext4"},
		{Device: "/dev/sdb1", MountPoint: "/mnt/My Disk", FSType: "vfat"},
	}, parseMounts(strings.NewReader(in)))
}

func TestParseDesktopEntry(t *testing.T) {
	e := parseDesktopEntry([]byte("[Desktop Entry]\nName=Syncer\nExec=/usr/bin/syncer --tray\nX-GNOME-Autostart-enabled=false\n[Desktop Action new]\nName=Other\n"))
	require.Equal(t, desktopEntry{Name: "Syncer", Exec: "/usr/bin/syncer --tray", Enabled: false}, e)
	require.Equal(t, "/usr/sbin/sshd -D", unitExecStart([]byte("[Service]\nExecStart=-/usr/sbin/sshd -D\n")))
}

func TestWindowsParsers(t *testing.T) {
	procs := ParseTasklistCSV([]byte(`"chrome.exe","1234","Console","1","150,123 K","Running","PC\me","0:00:10","N/A"` + "\r\n" + `"System","4","Services","0","144 K","Unknown","N/A","0:10:00","N/A"`))
	require.Len(t, procs, 2)
	require.Equal(t, Process{PID: 1234, Name: "chrome.exe", User: `PC\me`, MemoryBytes: 150123 * 1024, Status: "running"}, procs[0])
	require.Empty(t, procs[1].User)

	conns := ParseNetstat([]byte(`
Active Connections

  Proto  Local Address          Foreign Address        State           PID
  TCP    0.0.0.0:135            0.0.0.0:0              LISTENING       1044
  TCP    10.0.0.5:50123         93.184.216.34:443      ESTABLISHED     1234
  UDP    0.0.0.0:5353           *:*                                    2564
`))
	require.Equal(t, []Connection{
		{PID: 1044, LAddr: "0.0.0.0:135", Status: "LISTEN", Proto: "tcp"},
		{PID: 1234, LAddr: "10.0.0.5:50123", RAddr: "93.184.216.34:443", Status: "ESTABLISHED", Proto: "tcp"},
		{PID: 2564, LAddr: "0.0.0.0:5353", Status: "NONE", Proto: "udp"},
	}, conns)

	items := ParseRegRun([]byte("\r\nHKEY_CURRENT_USER\\Software\\Microsoft\\Windows\\CurrentVersion\\Run\r\n    OneDrive    REG_SZ    \"C:\\OneDrive.exe\" /background\r\n\r\n"), "HKCU")
	require.Equal(t, []StartupItem{{Name: "OneDrive", Command: `"C:\OneDrive.exe" /background`, Location: "HKCU", Enabled: true}}, items)
}
