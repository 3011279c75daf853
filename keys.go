package loginshield

// Key layout in the backing store. The configured prefix is applied by the
// store adapter; these are the namespaces within it. Identifier-keyed and
// IP-keyed entries never share a namespace, keeping the two state machines
// fully independent.
func attemptKey(identifier string) string { return "fa:" + identifier }
func ipAttemptKey(ip string) string       { return "fi:" + ip }
func lockKey(identifier string) string    { return "lk:" + identifier }
func blockKey(ip string) string           { return "bk:" + ip }
func lastSeenKey(ip string) string        { return "ts:" + ip }
func rapidKey(ip string) string           { return "rp:" + ip }
