package sign

import "sync"

// Builtin returns the process-wide built-in dictionary.
var Builtin = sync.OnceValue(func() *Dictionary {
	d, err := New(builtinEntries())
	if err != nil {
		panic("sign: invalid built-in dictionary: " + err.Error())
	}
	return d
})

func builtinEntries() map[string][]PoseKeyframe {
	return map[string][]PoseKeyframe{
		"hello": {
			{45, 90, PalmOut, PalmOut, "Right hand at head level, palm forward"},
			{45, 120, PalmOut, PalmOut, "Move right hand away from head"},
			{45, 90, PalmOut, PalmOut, "Return to starting position"},
		},
		"thank you": {
			{30, 30, PalmUp, PalmUp, "Start with flat hand at mouth"},
			{30, 75, PalmUp, PalmUp, "Move hand outward and down"},
		},
		"please": {
			{30, 45, PalmUp, Flat, "Right hand flat against chest"},
			{30, 45, PalmUp, Flat, "Rub in circular motion"},
		},
		"sorry": {
			{45, 45, Fist, Fist, "Make fist with right hand"},
			{45, 45, Fist, Fist, "Rub in circular motion on chest"},
		},
		"learn": {
			{30, 60, Open, Pinch, "Start with fingers pinched at forehead"},
			{30, 90, Open, Open, "Open hand as you pull away from forehead"},
		},
		"yes": {
			{30, 45, Relaxed, Fist, "Make a fist with right hand"},
			{30, 30, Relaxed, Fist, "Nod fist up and down like nodding head"},
		},
		"no": {
			{30, 60, Relaxed, PalmOut, "Right hand up, palm facing out"},
			{30, 60, Relaxed, PalmOut, "Move hand side to side like shaking head"},
		},
		"name": {
			{45, 45, IndexPoint, IndexPoint, "Both index fingers extended"},
			{45, 45, IndexPoint, IndexPoint, "Tap fingers together twice"},
		},
	}
}
