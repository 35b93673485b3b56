package mysql

// Cells are stored as raw text; typing and cleaning happen on load so a
// database-backed dataset behaves exactly like a file-backed one.
// Column order follows domain.CanonicalFields.

const insertReviewsPrefix = "INSERT INTO reviews\n  (product, review, rating, merk, category, price, user_name, post_date, skin_cond_age)\nVALUES "

const insertReviewsRow = "(?,?,?,?,?,?,?,?,?)"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Insertion order is load order.
const selectReviewsSQL = `
SELECT
  product,
  review,
  rating,
  merk,
  category,
  price,
  user_name,
  post_date,
  skin_cond_age
FROM reviews
ORDER BY id
`
