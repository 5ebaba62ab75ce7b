package engine

// checkEasterEgg implements the debug-build forced-serve hook: in a testing
// build, navigating to the configured easter-egg host forces an ad serve
// bypassing the frequency policy, gated by a cooldown so repeat
// navigations to the same host cannot spam a serve (spec.md §4.6,
// NextEasterEggSeconds default 30s).
func (e *Engine) checkEasterEgg(url string) {
	if !e.cfg.Testing {
		return
	}
	if !e.IsReady() {
		return
	}

	components := e.host.GetURLComponents(url)
	if components.Host != e.cfg.EasterEggHost {
		return
	}

	now := e.now().Unix()
	if now < e.nextEasterEgg {
		return
	}

	e.nextEasterEgg = now + int64(e.cfg.NextEasterEggSeconds)
	e.CheckReadyAdServe(true)
}
