package weather

// Reduce extracts the five recorded fields from an observation.
// It never fails: anything missing upstream stays nil.
func Reduce(obs Observation) Record {
	rec := Record{
		Name: obs.Name,
	}

	if len(obs.Weather) > 0 {
		rec.Description = obs.Weather[0].Description
	}

	if obs.Main != nil {
		rec.Temp = obs.Main.Temp
		rec.FeelsLike = obs.Main.FeelsLike
		rec.Humidity = obs.Main.Humidity
	}

	return rec
}
