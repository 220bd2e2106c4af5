package sysinfo

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// nmcliWiFiArgs lists visible networks in nmcli's terse format.
var nmcliWiFiArgs = []string{
	"-t", "-f", "SSID,BSSID,SIGNAL,CHAN,SECURITY,RSN-FLAGS,WPA-FLAGS",
	"device", "wifi", "list",
}

// ParseNmcli parses `nmcli -t` output produced with nmcliWiFiArgs.
// Access points sharing an SSID are grouped under one network.
func ParseNmcli(out []byte) []WiFiNetwork {
	var nets []WiFiNetwork
	index := map[string]int{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		f := splitTerse(sc.Text())
		if len(f) < 5 {
			continue
		}
		ssid := f[0]
		i, ok := index[ssid]
		if !ok {
			auth := strings.TrimSpace(f[4])
			if auth == "" || auth == "--" {
				auth = "Open"
			}
			var flags string
			if len(f) > 6 {
				flags = f[5] + " " + f[6]
			}
			nets = append(nets, WiFiNetwork{SSID: ssid, Authentication: auth, Encryption: cipherFromFlags(flags)})
			i = len(nets) - 1
			index[ssid] = i
		}
		signal, _ := strconv.Atoi(f[2])
		channel, _ := strconv.Atoi(f[3])
		nets[i].BSSIDs = append(nets[i].BSSIDs, BSSID{BSSID: strings.ToLower(f[1]), SignalPercent: signal, Channel: channel})
	}
	return nets
}

// splitTerse splits one nmcli terse line on unescaped colons.
func splitTerse(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

func cipherFromFlags(flags string) string {
	f := strings.ToLower(flags)
	switch {
	case strings.Contains(f, "ccmp"):
		return "CCMP"
	case strings.Contains(f, "tkip"):
		return "TKIP"
	case strings.Contains(f, "wep"):
		return "WEP"
	case strings.TrimSpace(strings.ReplaceAll(f, "(none)", "")) == "":
		return "None"
	}
	return "Unknown"
}

// ParseNetsh parses `netsh wlan show networks mode=bssid` output.
func ParseNetsh(out []byte) []WiFiNetwork {
	var (
		nets []WiFiNetwork
		net  *WiFiNetwork
		ap   *BSSID
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch {
		case strings.HasPrefix(key, "SSID"):
			nets = append(nets, WiFiNetwork{SSID: val})
			net, ap = &nets[len(nets)-1], nil
		case net == nil:
		case key == "Authentication":
			net.Authentication = val
		case key == "Encryption":
			net.Encryption = val
		case strings.HasPrefix(key, "BSSID"):
			net.BSSIDs = append(net.BSSIDs, BSSID{BSSID: strings.ToLower(val)})
			ap = &net.BSSIDs[len(net.BSSIDs)-1]
		case ap == nil:
		case key == "Signal":
			ap.SignalPercent, _ = strconv.Atoi(strings.TrimSuffix(val, "%"))
		case key == "Channel":
			ap.Channel, _ = strconv.Atoi(val)
		}
	}
	return nets
}
