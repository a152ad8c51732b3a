package mysql

// Use VALUES(col) for broad compatibility with 5.7 and 8.0.
const upsertPlaceSQL = `
INSERT INTO places
  (id, source_id, name, category, rating, review_count, latitude, longitude, distance_km, data)
VALUES
  (:id, :source_id, :name, :category, :rating, :review_count, :latitude, :longitude, :distance_km, :data)
ON DUPLICATE KEY UPDATE
  source_id    = VALUES(source_id),
  name         = VALUES(name),
  category     = VALUES(category),
  rating       = VALUES(rating),
  review_count = VALUES(review_count),
  latitude     = VALUES(latitude),
  longitude    = VALUES(longitude),
  distance_km  = VALUES(distance_km),
  data         = VALUES(data),
  updated_at   = CURRENT_TIMESTAMP
`
